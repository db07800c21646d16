package config

import "os"

func (c *Config) runJobs() {
	c.scheduler.Every(1).Minute().SingletonMode().Do(c.updateIPWhiteList)

	c.scheduler.StartAsync()
}

func (c *Config) updateIPWhiteList() {
	data, err := os.ReadFile(c.path)
	if err != nil {
		log.Warn("read config file failed", "err", err, "path", c.path)
		return
	}
	ipWhiteList := parseWhiteList(data)
	c.locker.Lock()
	c.ipWhiteList = ipWhiteList
	c.locker.Unlock()
}

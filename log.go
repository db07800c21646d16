package zns

import "github.com/everFinance/zns/common"

var log = common.NewLog("zns")

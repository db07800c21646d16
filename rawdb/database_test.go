package rawdb

import (
	"fmt"
	"sort"
	"testing"

	"github.com/everFinance/zns/schema"
	"github.com/stretchr/testify/assert"
)

func TestBoltDB(t *testing.T) {
	bktName := schema.ConstantsBucket // can be replaced by any bucket in schema
	keyNum := 100
	// prepare key&val to test
	keys := make([]string, keyNum)
	values := make([][]byte, keyNum)
	for i := 0; i < keyNum; i++ {
		keys[i] = fmt.Sprintf("key%d", i)
		values[i] = []byte(fmt.Sprintf("v%d", i))
	}
	boltDb, err := NewBoltDB(t.TempDir())
	assert.NoError(t, err)
	defer boltDb.Close()

	// test Put & Get
	for i := 0; i < keyNum; i++ {
		err = boltDb.Put(bktName, keys[i], values[i])
		assert.NoError(t, err)
	}

	for i := 0; i < keyNum; i++ {
		val, err := boltDb.Get(bktName, keys[i])
		assert.NoError(t, err)
		assert.Equal(t, values[i], val)
	}
	assert.True(t, boltDb.Exist(bktName, keys[0]))

	// GetAllKey return order may different from keys
	allKeys, err := boltDb.GetAllKey(bktName)
	sort.Strings(allKeys)
	sort.Strings(keys)
	assert.NoError(t, err)
	assert.Equal(t, keys, allKeys)

	// test Delete
	for i := 0; i < keyNum; i++ {
		err = boltDb.Delete(bktName, keys[i])
		assert.NoError(t, err)
	}
	for i := 0; i < keyNum; i++ {
		_, err = boltDb.Get(bktName, keys[i])
		assert.Equal(t, err, schema.ErrNotExist)
	}
}

func TestBoltDB_PutRejectsNonBytes(t *testing.T) {
	boltDb, err := NewBoltDB(t.TempDir())
	assert.NoError(t, err)
	defer boltDb.Close()

	err = boltDb.Put(schema.ConstantsBucket, "k", "not bytes")
	assert.Error(t, err)
	assert.False(t, boltDb.Exist(schema.ConstantsBucket, "k"))
}

func TestNewBoltDB_EmptyDir(t *testing.T) {
	_, err := NewBoltDB("")
	assert.Error(t, err)
}

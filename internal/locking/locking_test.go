package locking

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTable_Lock_SerializesSameKey(t *testing.T) {
	tbl := NewTable()
	var mu sync.Mutex
	order := make([]int, 0, 2)

	release1 := tbl.Lock("task", "t1")
	done := make(chan struct{})
	go func() {
		release2 := tbl.Lock("task", "t1")
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
		release2()
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	order = append(order, 1)
	mu.Unlock()
	release1()

	<-done
	assert.Equal(t, []int{1, 2}, order)
}

func TestTable_Lock_DistinctKeysDoNotBlock(t *testing.T) {
	tbl := NewTable()
	release1 := tbl.Lock("task", "t1")
	defer release1()

	done := make(chan struct{})
	go func() {
		release2 := tbl.Lock("task", "t2")
		release2()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on distinct key unexpectedly blocked")
	}
}

func TestTable_Lock_EntryEvictedAfterRelease(t *testing.T) {
	tbl := NewTable()
	release := tbl.Lock("task", "t1")
	release()

	tbl.mu.Lock()
	_, exists := tbl.entries["task:t1"]
	tbl.mu.Unlock()
	assert.False(t, exists)
}

package artcache

import (
	"database/sql"
	"log"
	"runtime"
	"sync"
)

// DatabaseExecutable is the type used for passing "work unit" to the
// databaseWorker. Every function which wants to do something with the
// database creates one and sends it to the databaseWorker for execution.
type DatabaseExecutable func(db *sql.DB) error

// databaseWorker is the only goroutine which touches the sql.DB. Serializing
// all access through it sidesteps SQLite's concurrent-writes limitations.
func (c *Cache) databaseWorker(wg *sync.WaitGroup) {
	defer c.workerWG.Done()

	c.dbExecutes = make(chan DatabaseExecutable)
	runtime.LockOSThread()

	wg.Done()
	for {
		select {
		case executable := <-c.dbExecutes:
			if err := executable(c.db); err != nil {
				log.Printf("Error from cache db executable: %s", err)
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// The only possible error from executeDBJob is one from the closed context.
func (c *Cache) executeDBJob(executable DatabaseExecutable) error {
	select {
	case c.dbExecutes <- executable:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	}
}

// executeDBJobAndWait executes the `executable`, waits for it to finish.
// Then returns its error.
func (c *Cache) executeDBJobAndWait(executable DatabaseExecutable) error {
	var executableErr error
	done := make(chan struct{})
	defer close(done)

	work := func(db *sql.DB) error {
		defer func() {
			done <- struct{}{}
		}()
		executableErr = executable(db)
		return nil
	}

	if err := c.executeDBJob(work); err != nil {
		return err
	}

	<-done
	return executableErr
}

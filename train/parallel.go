package train

import (
	"sync"

	"github.com/juju/errors"
)

// run dispatches nJobs tasks across nWorkers goroutines, adapting the
// teacher's common/parallel.Parallel without a context: spec §5 states the
// training driver has no cancellation, an epoch only ends when the reader
// reports end-of-stream.
func run(nJobs, nWorkers int, worker func(workerID, jobID int) error) error {
	if nWorkers <= 1 {
		for i := 0; i < nJobs; i++ {
			if err := worker(0, i); err != nil {
				return errors.Trace(err)
			}
		}
		return nil
	}

	jobs := make(chan int, 1024)
	go func() {
		defer close(jobs)
		for i := 0; i < nJobs; i++ {
			jobs <- i
		}
	}()

	errs := make([]error, nJobs)
	var wg sync.WaitGroup
	for w := 0; w < nWorkers; w++ {
		workerID := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			for jobID := range jobs {
				if err := worker(workerID, jobID); err != nil {
					errs[jobID] = err
				}
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

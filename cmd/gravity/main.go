// gravity is a headless driver for the simulator: it seeds a preset
// system, runs it for a fixed number of ticks, and captures frames as
// png images, sqlite rows, or compressed gob chunks.
package main

import (
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/quillaja/gravity"
	"github.com/quillaja/gravity/record"
)

// frameSink is anything that accepts per-frame snapshots.
type frameSink interface {
	WriteFrame(frame int, bodies []gravity.Snapshot) error
	Close() error
}

// frameJob carries one tick's snapshot to the output workers.
type frameJob struct {
	frame  int
	bodies []gravity.Snapshot
}

func main() {
	numbodies := flag.Int("n", gravity.DefaultN, "number of body slots")
	system := flag.String("system", "orbital-system", "preset system to generate")
	presetPath := flag.String("preset", "", "json preset file instead of a generated system")
	ticks := flag.Int("ticks", 1000, "ticks to simulate")
	theta := flag.Float64("theta", gravity.DefaultTheta, "tree opening angle (0 disables the approximation)")
	epsilon := flag.Float64("eps", gravity.DefaultEpsilon, "softening length")
	direct := flag.Bool("direct", false, "use the O(n²) sum instead of the tree")
	workers := flag.Int("workers", 0, "acceleration workers (0 = 2x cpu count)")
	trail := flag.Int("trail", 0, "positions kept per body for motion trails")
	dbPath := flag.String("db", "", "write frames to this sqlite file")
	chunkDir := flag.String("chunks", "", "write frames as gob chunks to this directory")
	pngDir := flag.String("png", "", "render frames as pngs to this directory")
	camZ := flag.Float64("camz", 1e6, "camera distance for png rendering")
	flag.Parse()

	w, err := gravity.NewWorld(*numbodies)
	if err != nil {
		log.Fatal(err)
	}
	w.Workers = *workers
	w.SetAccuracy(*theta, *epsilon)
	w.SetDirect(*direct)
	if *trail > 0 {
		w.EnableTrails(*trail)
	}

	if *presetPath != "" {
		bodies, err := loadPreset(*presetPath)
		if err != nil {
			log.Fatal(err)
		}
		if err := w.SetBodies(bodies); err != nil {
			log.Fatal(err)
		}
	} else {
		st, err := gravity.ParseSystemType(*system)
		if err != nil {
			log.Fatal(err)
		}
		if err := w.Generate(st); err != nil {
			log.Fatal(err)
		}
	}

	// output workers. each sink gets its own channel and goroutine (one
	// writer per store); png rendering gets a small pool since frames
	// are independent.
	wg := sync.WaitGroup{}
	var outs []chan frameJob
	addSink := func(s frameSink) {
		ch := make(chan frameJob, 32)
		outs = append(outs, ch)
		wg.Add(1)
		go sinkWorker(s, ch, &wg)
	}
	if *dbPath != "" {
		db, err := record.OpenDB(*dbPath)
		if err != nil {
			log.Fatal(err)
		}
		addSink(db)
	}
	if *chunkDir != "" {
		cs, err := record.NewChunkStore(*chunkDir, 48)
		if err != nil {
			log.Fatal(err)
		}
		addSink(cs)
	}
	if *pngDir != "" {
		ch := make(chan frameJob, 32)
		outs = append(outs, ch)
		const renderWorkers = 2
		wg.Add(renderWorkers)
		for i := 0; i < renderWorkers; i++ {
			r, err := newPNGRenderer(*pngDir, 1920, 1080, *camZ)
			if err != nil {
				log.Fatal(err)
			}
			go renderWorker(r, ch, &wg)
		}
	}

	fmt.Printf("bodies: %d\ntree: %t\ntheta: %.2f\nticks: %d\ntotal mass: %.3g\n",
		w.BodyCount(), !*direct, *theta, *ticks, w.TotalMass())

	w.SetActive(true)
	start := time.Now()
	for tick := 0; tick < *ticks; tick++ {
		w.Tick()

		if len(outs) > 0 {
			job := frameJob{frame: tick, bodies: w.Snapshot()}
			for _, ch := range outs {
				ch <- job
			}
		}

		avg := time.Since(start).Milliseconds() / int64(tick+1)
		left := time.Duration(avg*int64(*ticks-tick-1)) * time.Millisecond
		fmt.Printf("%.1f%%, %d bodies, %dms/frame, %s remaining, %s elapsed                    \r",
			100*float64(tick+1)/float64(*ticks),
			w.BodyCount(),
			avg,
			left.Truncate(time.Second),
			time.Since(start).Truncate(time.Second),
		)
	}

	for _, ch := range outs {
		close(ch)
	}
	wg.Wait()
	fmt.Printf("\nDone. %d frames in %s\n", w.Frames(), time.Since(start).Truncate(time.Second))
}

// sinkWorker drains frames into a store and closes it.
func sinkWorker(s frameSink, ch chan frameJob, wg *sync.WaitGroup) {
	defer wg.Done()
	for job := range ch {
		if err := s.WriteFrame(job.frame, job.bodies); err != nil {
			log.Fatal(err)
		}
	}
	if err := s.Close(); err != nil {
		log.Fatal(err)
	}
}

// renderWorker rasterizes frames to png files.
func renderWorker(r *pngRenderer, ch chan frameJob, wg *sync.WaitGroup) {
	defer wg.Done()
	for job := range ch {
		if err := r.renderFrame(job.frame, job.bodies); err != nil {
			log.Fatal(err)
		}
	}
}

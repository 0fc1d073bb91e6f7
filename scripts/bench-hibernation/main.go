// bench-hibernation measures heap memory before and after Allocator.Hibernate
// while a tree grows in chunks of random inserts and deletes.
//
// Usage:
//
//	go run ./scripts/bench-hibernation --keys 2000000 --chunk-size 500000 \
//	  --delete-ratio 0.3 --profile-dir docs/profiles/hibernation
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/Sumatoshi-tech/redblack/internal/rbtree"
)

const (
	profileDirPerm = 0o755
	bytesPerMB     = 1e6
	percent        = 100
)

type heapSnapshot struct {
	label     string
	heapInUse uint64
	heapSys   uint64
	heapIdle  uint64
}

type bench struct {
	profileDir string
	snapshots  []heapSnapshot
}

func main() {
	keys := flag.Int("keys", 1000000, "Number of random keys to insert")
	chunkSize := flag.Int("chunk-size", 250000, "Inserts per chunk between hibernations")
	deleteRatio := flag.Float64("delete-ratio", 0, "Fraction of each chunk deleted again (0..1)")
	deleteMode := flag.String("delete-mode", "plain", "Delete mode: plain or rebalance")
	seed := flag.Int64("seed", 1, "Random seed")
	profileDir := flag.String("profile-dir", "", "Directory to write heap profiles (optional)")

	flag.Parse()

	mode, err := rbtree.ParseDeleteMode(*deleteMode)
	if err != nil {
		log.Fatalf("delete mode: %v", err)
	}

	if *profileDir != "" {
		if mkErr := os.MkdirAll(*profileDir, profileDirPerm); mkErr != nil {
			log.Fatalf("mkdir profile-dir: %v", mkErr)
		}
	}

	b := &bench{profileDir: *profileDir}
	rng := rand.New(rand.NewSource(*seed))
	tree := rbtree.New(rbtree.WithDeleteMode(mode))
	alloc := tree.Allocator()

	b.takeSnapshot("before_processing")

	chunks := planChunks(*keys, *chunkSize)
	log.Printf("inserting %d keys in %d chunks (chunk size %d)", *keys, len(chunks), *chunkSize)

	for i, chunk := range chunks {
		if i > 0 {
			label := fmt.Sprintf("chunk_%d_end", i)
			b.takeSnapshot(label + "_before_hibernate")
			b.writeHeapProfile(fmt.Sprintf("heap_chunk_%d_before_hibernate.prof", i))

			start := time.Now()

			if herr := alloc.Hibernate(); herr != nil {
				log.Fatalf("hibernate: %v", herr)
			}

			log.Printf("  hibernated %d slots into %.1f MB in %v",
				alloc.Size(), float64(alloc.HibernatedBytes())/bytesPerMB, time.Since(start))

			b.takeSnapshot(label + "_after_hibernate")
			b.writeHeapProfile(fmt.Sprintf("heap_chunk_%d_after_hibernate.prof", i))

			start = time.Now()

			if berr := alloc.Boot(); berr != nil {
				log.Fatalf("boot: %v", berr)
			}

			log.Printf("  booted in %v", time.Since(start))
			b.takeSnapshot(label + "_after_boot")
		}

		log.Printf("processing chunk %d/%d (keys %d-%d)", i+1, len(chunks), chunk.start, chunk.end)
		runChunk(tree, rng, chunk.end-chunk.start, *deleteRatio)
	}

	b.takeSnapshot("after_all_chunks")
	b.writeHeapProfile("heap_after_all_chunks.prof")

	if verr := tree.VerifyStructure(); verr != nil {
		log.Fatalf("verify: %v", verr)
	}

	b.printSummary(tree.Len())
}

func runChunk(tree *rbtree.Tree, rng *rand.Rand, inserts int, deleteRatio float64) {
	inserted := make([]int, 0, inserts)

	for range inserts {
		key := rng.Int()
		if tree.Insert(key) {
			inserted = append(inserted, key)
		}
	}

	deletes := max(0, min(len(inserted), int(float64(len(inserted))*deleteRatio)))
	for _, idx := range rng.Perm(len(inserted))[:deletes] {
		tree.Delete(inserted[idx])
	}
}

func (b *bench) takeSnapshot(label string) {
	runtime.GC()
	runtime.GC()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	b.snapshots = append(b.snapshots, heapSnapshot{
		label:     label,
		heapInUse: m.HeapInuse,
		heapSys:   m.HeapSys,
		heapIdle:  m.HeapIdle,
	})

	log.Printf("  [heap] %-40s inuse=%6.1f MB  sys=%6.1f MB  idle=%6.1f MB",
		label, float64(m.HeapInuse)/bytesPerMB, float64(m.HeapSys)/bytesPerMB, float64(m.HeapIdle)/bytesPerMB)
}

func (b *bench) writeHeapProfile(name string) {
	if b.profileDir == "" {
		return
	}

	runtime.GC()

	path := filepath.Join(b.profileDir, name)

	f, ferr := os.Create(path)
	if ferr != nil {
		log.Printf("warning: create heap profile %s: %v", path, ferr)

		return
	}
	defer f.Close()

	if perr := pprof.WriteHeapProfile(f); perr != nil {
		log.Printf("warning: write heap profile %s: %v", path, perr)
	}
}

func (b *bench) printSummary(nodes int) {
	fmt.Println()
	fmt.Printf("=== Heap Memory Timeline (%d nodes, %d bytes per slot) ===\n", nodes, rbtree.NodeBytes)
	fmt.Printf("%-45s %10s %10s %10s\n", "Phase", "InUse(MB)", "Sys(MB)", "Idle(MB)")
	fmt.Println("---------------------------------------------+----------+----------+----------")

	for _, s := range b.snapshots {
		fmt.Printf("%-45s %10.1f %10.1f %10.1f\n",
			s.label, float64(s.heapInUse)/bytesPerMB, float64(s.heapSys)/bytesPerMB, float64(s.heapIdle)/bytesPerMB)
	}

	fmt.Println()
	fmt.Println("=== Hibernation Memory Deltas ===")

	for i := 0; i+1 < len(b.snapshots); i++ {
		curr, next := b.snapshots[i], b.snapshots[i+1]
		if !strings.HasSuffix(curr.label, "before_hibernate") || !strings.HasSuffix(next.label, "after_hibernate") {
			continue
		}

		delta := float64(curr.heapInUse) - float64(next.heapInUse)
		fmt.Printf("  %s -> %s: %.1f MB freed (%.1f%%)\n",
			curr.label, next.label, delta/bytesPerMB, delta/float64(curr.heapInUse)*percent)
	}
}

type chunkBounds struct {
	start int
	end   int
}

func planChunks(total, chunkSize int) []chunkBounds {
	var chunks []chunkBounds

	if chunkSize <= 0 {
		chunkSize = total
	}

	for start := 0; start < total; start += chunkSize {
		end := min(start+chunkSize, total)
		chunks = append(chunks, chunkBounds{start: start, end: end})
	}

	return chunks
}

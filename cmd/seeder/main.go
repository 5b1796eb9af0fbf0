package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/codemem/codemem"
	"github.com/codemem/codemem/ingestion"
)

var (
	dbPath       = flag.String("db", "./codemem.db", "path to database directory")
	seedFileName = flag.String("file", "", "optional JSON-Lines file to seed from instead of the builtin samples")
	project      = flag.String("project", "samples", "project id for the builtin samples")
)

var samples = []ingestion.Item{
	{
		Name:     "binary-search",
		Language: "go",
		Code: `func binarySearch(xs []int, target int) int {
	lo, hi := 0, len(xs)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		switch {
		case xs[mid] == target:
			return mid
		case xs[mid] < target:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return -1
}`,
		Description: "iterative binary search over a sorted int slice",
	},
	{
		Name:     "retry-backoff",
		Language: "go",
		Code: `func withBackoff(ctx context.Context, attempts int, fn func() error) error {
	delay := 100 * time.Millisecond
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		select {
		case <-time.After(delay):
			delay *= 2
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}`,
		Description: "retry helper with exponential backoff and context cancellation",
	},
	{
		Name:     "lru-cache",
		Language: "python",
		Code: `from collections import OrderedDict

class LRUCache:
    def __init__(self, capacity):
        self.capacity = capacity
        self.items = OrderedDict()

    def get(self, key):
        if key not in self.items:
            return None
        self.items.move_to_end(key)
        return self.items[key]

    def put(self, key, value):
        self.items[key] = value
        self.items.move_to_end(key)
        if len(self.items) > self.capacity:
            self.items.popitem(last=False)`,
		Description: "least-recently-used cache backed by an ordered dict",
	},
	{
		Name:     "debounce",
		Language: "typescript",
		Code: `function debounce<T extends (...args: any[]) => void>(fn: T, wait: number) {
  let timer: ReturnType<typeof setTimeout> | undefined;
  return (...args: Parameters<T>) => {
    if (timer) clearTimeout(timer);
    timer = setTimeout(() => fn(...args), wait);
  };
}`,
		Description: "debounce wrapper that delays invocation until calls settle",
	},
	{
		Name:     "chunked-reader",
		Language: "go",
		Code: `func readChunks(r io.Reader, size int, fn func([]byte) error) error {
	buf := make([]byte, size)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if cbErr := fn(buf[:n]); cbErr != nil {
				return cbErr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}`,
		Description: "stream a reader through a fixed-size chunk callback",
	},
	{
		Name:     "topological-sort",
		Language: "python",
		Code: `def topo_sort(graph):
    indegree = {node: 0 for node in graph}
    for deps in graph.values():
        for dep in deps:
            indegree[dep] += 1
    queue = [n for n, d in indegree.items() if d == 0]
    order = []
    while queue:
        node = queue.pop()
        order.append(node)
        for dep in graph[node]:
            indegree[dep] -= 1
            if indegree[dep] == 0:
                queue.append(dep)
    if len(order) != len(graph):
        raise ValueError("cycle detected")
    return order`,
		Description: "Kahn topological sort with cycle detection",
	},
}

func main() {
	flag.Parse()

	store, err := codemem.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	pipeline, err := store.NewIngestionPipeline()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build pipeline: %v\n", err)
		os.Exit(1)
	}
	defer pipeline.Release()

	ctx := context.Background()

	var summary *ingestion.Summary
	if *seedFileName != "" {
		f, err := os.Open(*seedFileName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open seed file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		summary, err = pipeline.IngestReader(ctx, *seedFileName, f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "seeding failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		items := make([]ingestion.Item, len(samples))
		copy(items, samples)
		for i := range items {
			items[i].ProjectID = *project
		}
		summary, err = pipeline.IngestItems(ctx, "builtin samples", items)
		if err != nil {
			fmt.Fprintf(os.Stderr, "seeding failed: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Seeded %s: %d accepted, %d skipped, %d failed\n",
		summary.Source, summary.Accepted, summary.Skipped, summary.Failed)
	for _, itemErr := range summary.Errors {
		fmt.Fprintf(os.Stderr, "  %s\n", itemErr.Error())
	}
}

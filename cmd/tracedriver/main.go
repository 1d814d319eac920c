// Command tracedriver replays allocator trace files against the
// segregated-list allocator in github.com/QuangTung97/memalloc/allocator.
package main

func main() {
	execute()
}

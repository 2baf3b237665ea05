// Package storage holds the collected usernames of a run and writes them
// to disk.
//
// UserSet is the thread-safe accumulator shared by every pagination mode:
// it deduplicates usernames (case-sensitive) and counts every processed
// entry, including duplicates and entries without a username.
//
// Writer produces the result file: usernames sorted ascending, one per
// line, each terminated by "\n". Files are written to a temporary file and
// renamed into place so a partial file never replaces a complete one.
//
// Usage:
//
//	set := storage.NewUserSet()
//	set.AddPage(page.Members)
//
//	w := storage.NewWriter("out")
//	path := w.Path(storage.Filename("12345", time.Now()))
//	if err := w.Write(path, set.SnapshotSorted()); err != nil {
//	    // errors.IsType(err, errors.ErrorTypeIO)
//	}
package storage

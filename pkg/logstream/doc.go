// Package logstream normalizes heterogeneous log stream events into one
// record shape: a resolved timestamp, a normalized level, an inferred source
// type (http, docker, journald, file, unknown) and its type-specific fields.
//
// Quick start:
//
//	n := logstream.New()
//	rec, err := n.Normalize([]byte(`{"body":"ok","logAttributes":{"http.method":"GET","http.path":"/health","http.status_code":200}}`))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(rec.SourceType, rec.Source) // http unknown
//
// A Normalizer holds no mutable state and is safe for concurrent use.
package logstream

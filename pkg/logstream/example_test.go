package logstream_test

import (
	"fmt"
	"log"

	"github.com/crimson-sun/logstream/pkg/logstream"
)

func Example() {
	n := logstream.New()

	rec, err := n.Normalize([]byte(`{
		"severity_text": "err",
		"service_name": "edge",
		"body": "127.0.0.1 - - [10/Oct/2000:13:55:36 -0700] \"GET /index.html HTTP/1.1\" 500 512",
		"logAttributes": {"file_path": "/var/log/nginx/access.log"}
	}`))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%s %s %s\n", rec.Level, rec.SourceType, rec.Source)
	fmt.Printf("dir=%s method=%s ip=%s status=%d\n", rec.Directory, rec.Method, rec.ClientIP, rec.StatusCode)
	// Output:
	// ERROR file access.log
	// dir=/var/log/nginx method=GET ip=127.0.0.1 status=500
}

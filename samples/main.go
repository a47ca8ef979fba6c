// samples/main.go
//
// Minimal HTTP server baked into the sample image. Run the whole
// sample with:
//
//	cd samples && apptainer-compose build && apptainer-compose up
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "hello from the apptainer-compose sample")
	})
	log.Fatal(http.ListenAndServe(":"+port, nil))
}

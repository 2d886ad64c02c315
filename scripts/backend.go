// Backend is a plain HTTP server used to exercise the load balancer
// manually. It answers /health for probes and echoes request details on
// every other path, tagged with its own port so distribution is visible.
//
// Usage:
//
//	go run backend.go -port 9001
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
)

type echoResponse struct {
	Server string `json:"server"`
	Method string `json:"method"`
	Path   string `json:"path"`
}

func main() {
	port := flag.Int("port", 9001, "port to listen on")
	flag.Parse()

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(echoResponse{
			Server: fmt.Sprintf("localhost:%d", *port),
			Method: r.Method,
			Path:   r.URL.Path,
		})
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("test backend listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, mux))
}

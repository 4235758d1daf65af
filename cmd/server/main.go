package main

import "log"

func main() {
	srv, err := NewServer()
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	if err := srv.Run(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

package main

import (
	"flag"
	"os"

	"github.com/df07/go-raytracer-accel/pkg/core"
	"github.com/df07/go-raytracer-accel/web/server"
)

func main() {
	port := flag.Int("port", 8080, "Port to serve on")
	flag.Parse()

	logger := core.NewDefaultLogger()
	webServer := server.NewServer(*port, logger)

	logger.Printf("Ray inspection server\n")
	logger.Printf("Try http://localhost:%d/api/render?scene=spheres&count=200\n", *port)

	if err := webServer.Start(); err != nil {
		logger.Printf("Error starting server: %v\n", err)
		os.Exit(1)
	}
}

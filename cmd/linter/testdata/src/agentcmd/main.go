package main

import (
	"log"
	"os"
	"time"
)

func main() {
	start := time.Now()
	if err := collect(); err != nil {
		log.Fatal(err)
	}
	log.Println(time.Since(start))
	os.Exit(0)
}

func collect() error {
	panic("not collected") // want "found usage of panic"
}

func shutdown() {
	log.Fatalf("shutdown: %v", "timeout") // want "found usage of log.Fatalf outside of main function"
	os.Exit(1)                            // want "found usage of os.Exit outside of main function"
}

package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
)

func main() {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		fmt.Printf("failed to generate secret: %v\n", err)
		os.Exit(1)
	}

	encoded := base64.StdEncoding.EncodeToString(secret)

	fmt.Println("--- COPY BELOW TO .env.local ---")
	fmt.Printf("JWT_SECRET=%s\n", encoded)
	fmt.Println("--------------------------------")
}

package main

import (
	"fmt"
	"os"

	"doc-chat-backend/config"
	"doc-chat-backend/middleware"
)

// 生成一个可用于调试的Bearer令牌
func main() {
	config.MustLoad()

	subject := "debug"
	if len(os.Args) > 1 {
		subject = os.Args[1]
	}

	token, err := middleware.GenerateToken(subject)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}

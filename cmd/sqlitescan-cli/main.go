package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cobaltdb/sqlitescan/pkg/wire"
)

func main() {
	var serverAddr = "localhost:4200"
	if len(os.Args) > 1 {
		serverAddr = os.Args[1]
	}

	fmt.Println("sqlitescan CLI")
	fmt.Printf("Connecting to %s...\n", serverAddr)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	client, err := wire.Dial(ctx, serverAddr)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	fmt.Println("Connected. Type .info, .ping, a SELECT statement, or 'exit' to quit.")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("sqlitescan> ")

		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Println()
				return
			}
			fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if line == "exit" || line == "quit" {
			fmt.Println("Goodbye!")
			return
		}

		if err := execute(client, line); err != nil {
			var msg *wire.ErrorMessage
			if errors.As(err, &msg) {
				fmt.Printf("Error: %s (code: %d)\n", msg.Message, msg.Code)
				continue
			}
			fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
			os.Exit(1)
		}
	}
}

func execute(client *wire.Client, line string) error {
	switch line {
	case ".ping":
		start := time.Now()
		if err := client.Ping(); err != nil {
			return err
		}
		fmt.Printf("pong (%v)\n", time.Since(start))
		return nil

	case ".info":
		info, err := client.Info()
		if err != nil {
			return err
		}
		fmt.Printf("database page size: %d\n", info.PageSize)
		fmt.Printf("number of pages: %d\n", info.PageCount)
		fmt.Printf("number of tables: %d\n", info.TableCount)
		fmt.Printf("tables: %s\n", strings.Join(info.Tables, " "))
		return nil
	}

	result, err := client.Query(line)
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func printResult(r *wire.ResultMessage) {
	if len(r.Columns) == 0 {
		return
	}

	for i, col := range r.Columns {
		if i > 0 {
			fmt.Print("\t")
		}
		fmt.Print(col)
	}
	fmt.Println()

	for _, row := range r.Rows {
		for i, val := range row {
			if i > 0 {
				fmt.Print("\t")
			}
			if val == nil {
				val = "NULL"
			}
			fmt.Print(val)
		}
		fmt.Println()
	}

	fmt.Printf("(%d rows)\n", r.Count)
}

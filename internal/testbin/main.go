// Command testbin is a fixture program for testing the clifford library.
// The first argument selects its behavior:
//
//   - (none) or "echo": prints a "ready>" prompt and handles lines:
//     "quit" exits 0, "fail" exits 1, "lines N" prints N numbered lines,
//     "size" prints the terminal size, anything else prints "echo: <line>"
//   - "prompt": asks "? pick a color: ", then redraws the prompt line with
//     the answer and prints "done"
//   - "confirm": asks "continue? (y/n) " and prints "answer: <line>"
//   - "spinner": animates a spinner in place, then prints "loaded"
//   - "stderr": writes to stdout and stderr alternately
//   - "silent": exits immediately without output
//   - "exit N": prints "bye" and exits with status N
//   - "hang": prints "hanging" and ignores SIGTERM
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"
)

func main() {
	mode := "echo"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	switch mode {
	case "echo":
		echo()
	case "prompt":
		prompt()
	case "confirm":
		fmt.Print("continue? (y/n) ")
		fmt.Printf("answer: %s\n", readLine())
	case "spinner":
		spinner()
	case "stderr":
		for i := 1; i <= 3; i++ {
			fmt.Fprintf(os.Stdout, "out %d\n", i)
			fmt.Fprintf(os.Stderr, "err %d\n", i)
		}
	case "silent":
	case "exit":
		code := 0
		if len(os.Args) > 2 {
			code, _ = strconv.Atoi(os.Args[2])
		}
		fmt.Println("bye")
		os.Exit(code)
	case "hang":
		signal.Ignore(syscall.SIGTERM)
		fmt.Println("hanging")
		time.Sleep(time.Minute)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", mode)
		os.Exit(2)
	}
}

var stdin = bufio.NewReader(os.Stdin)

func readLine() string {
	line, _ := stdin.ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}

func prompt() {
	fmt.Print("? pick a color: ")
	answer := readLine()
	fmt.Printf("\r\x1b[2K? pick a color: %s\n", answer)
	fmt.Println("done")
}

func spinner() {
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴"}
	for _, f := range frames {
		fmt.Printf("\r%s loading", f)
		time.Sleep(20 * time.Millisecond)
	}
	fmt.Print("\r\x1b[2Kloaded\n")
}

func echo() {
	fmt.Print("ready>")

	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		input := strings.TrimRight(scanner.Text(), "\r")

		switch {
		case input == "quit":
			os.Exit(0)

		case input == "fail":
			os.Exit(1)

		case strings.HasPrefix(input, "lines "):
			countStr := strings.TrimPrefix(input, "lines ")
			count, parseErr := strconv.Atoi(countStr)
			if parseErr != nil {
				fmt.Printf("error: invalid count %q\n", countStr)
			} else {
				for i := 1; i <= count; i++ {
					fmt.Printf("line %d\n", i)
				}
			}
			fmt.Print("ready>")

		case input == "size":
			cols, rows, err := term.GetSize(int(os.Stdout.Fd()))
			if err != nil {
				fmt.Printf("size: %v\n", err)
			} else {
				fmt.Printf("size: %dx%d\n", cols, rows)
			}
			fmt.Print("ready>")

		default:
			fmt.Printf("echo: %s\n", input)
			fmt.Print("ready>")
		}
	}
}

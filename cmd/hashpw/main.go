// Command hashpw prints a bcrypt hash suitable for seeding a users row,
// e.g. the first admin account.
//
//	echo -n 'Secret123' | hashpw -cost 12
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/hongminglow/church-portal-be/internal/auth"
	"github.com/hongminglow/church-portal-be/internal/logger"
)

func main() {
	cost := flag.Int("cost", 12, "bcrypt work factor")
	level := flag.String("log-level", "warn", "log level")
	flag.Parse()

	log := logger.New(*level)

	password, err := readPassword()
	if err != nil {
		log.Error("read password", "error", err)
		os.Exit(1)
	}

	hasher, err := auth.NewHasher(*cost)
	if err != nil {
		log.Error("init hasher", "error", err)
		os.Exit(1)
	}
	hash, err := hasher.Hash(password)
	if err != nil {
		log.Error("hash password", "error", err, slog.Int("cost", *cost))
		os.Exit(1)
	}
	fmt.Println(hash)
}

func readPassword() (string, error) {
	if flag.NArg() > 0 {
		return flag.Arg(0), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("no password on stdin: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("password is empty")
	}
	return line, nil
}

package main

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

const adminPasswordEnv = "GOPHBLOG_ADMIN_PASSWORD"

// adminPassword берет пароль из окружения, иначе спрашивает в терминале
func adminPassword() (string, error) {
	if password := os.Getenv(adminPasswordEnv); password != "" {
		return password, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("%s is not set and stdin is not a terminal", adminPasswordEnv)
	}

	password, err := readPassword(fd, "Admin password: ")
	if err != nil {
		return "", err
	}
	confirm, err := readPassword(fd, "Confirm password: ")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", errors.New("passwords do not match")
	}

	return password, nil
}

func readPassword(fd int, prompt string) (string, error) {
	fmt.Print(prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}

// Command hashpw reads the studio admin password from stdin and prints the bcrypt hash for ADMIN_PASSWORD_HASH.
package main

import (
	"bufio"
	"braidbook/shared/logger"
	"braidbook/shared/password"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

func main() {
	logger.InitLogger()

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		log.Fatal().Err(err).Msg("Failed to read password from stdin")
	}

	hashed, err := password.Hash(strings.TrimRight(line, "\r\n"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	fmt.Println(hashed) //nolint:forbidigo
}

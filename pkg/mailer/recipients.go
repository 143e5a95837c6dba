/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: recipients.go
Description: Mailing list loading. The list is a plain text file with one address per
line; surrounding whitespace is trimmed and blank lines are skipped.
*/

package mailer

import (
	"bufio"
	"os"
	"strings"

	"github.com/kleascm/fuzz-report/pkg/failure"
)

// ReadRecipients returns the addresses listed in path, in file order
func ReadRecipients(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, failure.Wrap(failure.KindMissingFile, path, err)
	}
	defer file.Close()

	var recipients []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		address := strings.TrimSpace(scanner.Text())
		if address == "" {
			continue
		}
		recipients = append(recipients, address)
	}
	if err := scanner.Err(); err != nil {
		return nil, failure.Wrap(failure.KindMissingFile, path, err)
	}

	if len(recipients) == 0 {
		return nil, failure.New(failure.KindInvalidInput, path, "mailing list has no recipients")
	}
	return recipients, nil
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/pkg/errors"
)

var output io.Writer = os.Stdout

func printErrorAndExit(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}

func printJSON(value interface{}) error {
	encoder := json.NewEncoder(output)
	encoder.SetIndent("", "  ")
	return errors.WithStack(encoder.Encode(value))
}

func parseHash(name string, hashString string) (*externalapi.DomainHash, error) {
	hash, err := externalapi.NewDomainHashFromString(hashString)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s", name)
	}
	return hash, nil
}

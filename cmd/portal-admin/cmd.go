package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/noah-isme/sis-portal/internal/store"
)

var errHelp = errors.New("help provided")

type recordStore interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Revision(ctx context.Context, key string) (int64, bool, error)
	ClearAll(ctx context.Context) bool
	Reset(ctx context.Context) error
}

type commandLine struct {
	records recordStore
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  keys             - list the collection keys and their write revisions")
	fmt.Fprintln(cli.out, "  dump -key KEY    - print a collection as JSON")
	fmt.Fprintln(cli.out, "  clear            - remove every collection")
	fmt.Fprintln(cli.out, "  reset            - remove every collection and write the defaults")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	dumpCmd := flag.NewFlagSet("dump", flag.ContinueOnError)
	dumpCmd.SetOutput(cli.out)
	dumpKey := dumpCmd.String("key", "", "Collection key, e.g. students")

	switch args[1] {
	case "keys":
		return cli.keys(ctx)
	case "dump":
		if err := dumpCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *dumpKey == "" {
			dumpCmd.Usage()
			return errHelp
		}
		return cli.dump(ctx, *dumpKey)
	case "clear":
		if !cli.records.ClearAll(ctx) {
			return errors.New("clear: one or more collections could not be removed")
		}
		fmt.Fprintln(cli.out, "all collections removed")
		return nil
	case "reset":
		if err := cli.records.Reset(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "collections reset to defaults")
		return nil
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) keys(ctx context.Context) error {
	for _, key := range store.Keys {
		rev, ok, err := cli.records.Revision(ctx, key)
		if err != nil {
			return fmt.Errorf("%q: %w", key, err)
		}
		if !ok {
			fmt.Fprintln(cli.out, key)
			continue
		}
		fmt.Fprintf(cli.out, "%s\trevision %d\n", key, rev)
	}
	return nil
}

func (cli *commandLine) dump(ctx context.Context, key string) error {
	if !knownKey(key) {
		return fmt.Errorf("%q: no such collection", key)
	}
	var payload json.RawMessage
	found, err := cli.records.Get(ctx, key, &payload)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%q: collection is empty", key)
	}
	pretty, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, string(pretty))
	return nil
}

func knownKey(key string) bool {
	for _, k := range store.Keys {
		if k == key {
			return true
		}
	}
	return false
}

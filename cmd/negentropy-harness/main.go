// Package harness drives one side of a reconciliation from a line-oriented
// stdin/stdout protocol, for interop testing against other implementations
// of the same protocol.
package harness

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cmdp "github.com/negentropysync/negentropy/cmd"
	"github.com/negentropysync/negentropy/hexutil"
	"github.com/negentropysync/negentropy/log"
	"github.com/negentropysync/negentropy/reconcile"
	"github.com/negentropysync/negentropy/store"
)

// Cmd is the harness's cobra command, wired to this module's global flags.
var Cmd = &cobra.Command{
	Use:   "negentropy-harness",
	Short: "drive a set-reconciliation session from stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newHarnessApp()
		app.Initialize(cmd)
		return app.run(os.Stdin, os.Stdout)
	},
}

func init() {
	cmdp.AddCommands(Cmd)
}

type harnessApp struct {
	*cmdp.BaseApp
}

func newHarnessApp() *harnessApp {
	return &harnessApp{BaseApp: cmdp.NewBaseApp()}
}

func splitFields(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool { return r == ',' })
}

// run reads item/seal/initiate/msg commands from in, one per line, and
// writes msg/have/need/done lines to out. It mirrors the protocol spoken
// by the reference harnesses: item,<created>,<idhex>, seal, initiate,
// msg,<hex>.
func (app *harnessApp) run(in *os.File, out *os.File) error {
	idSize := app.Config.IDSize
	frameSizeLimit := app.Config.FrameSizeLimit

	st, err := store.New(idSize)
	if err != nil {
		return err
	}
	var eng *reconcile.Engine

	scanner := bufio.NewScanner(in)
	const maxCapacity = 1024 * 1024
	scanner.Buffer(make([]byte, maxCapacity), maxCapacity)

	w := bufio.NewWriter(out)
	defer w.Flush()

	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		fields := splitFields(line)

		switch fields[0] {
		case "item":
			if len(fields) != 3 {
				return fmt.Errorf("harness: item: wrong number of fields")
			}
			created, err := strconv.ParseUint(fields[1], 10, 64)
			if err != nil {
				return fmt.Errorf("harness: item: %w", err)
			}
			id, err := hexutil.Decode(fields[2])
			if err != nil {
				return fmt.Errorf("harness: item: %w", err)
			}
			if err := st.Insert(created, store.ID(id)); err != nil {
				return fmt.Errorf("harness: item: %w", err)
			}

		case "seal":
			if err := st.Seal(); err != nil {
				return fmt.Errorf("harness: seal: %w", err)
			}
			eng, err = reconcile.New(st, idSize, frameSizeLimit)
			if err != nil {
				return fmt.Errorf("harness: seal: %w", err)
			}

			// Tag every round's log line for this sealed session with a
			// fresh request id, so a caller correlating logs across
			// concurrent harness runs can tell rounds apart.
			ctx := log.WithNewRequestId(context.Background())
			log.SetupGlobal(log.GetLogger().WithContext(ctx))

		case "initiate":
			msg, err := eng.Initiate()
			if err != nil {
				return fmt.Errorf("harness: initiate: %w", err)
			}
			fmt.Fprintf(w, "msg,%s\n", hexutil.Encode(msg))

		case "msg":
			var msg []byte
			if len(fields) >= 2 {
				msg, err = hexutil.Decode(fields[1])
				if err != nil {
					return fmt.Errorf("harness: msg: %w", err)
				}
			}

			next, have, need, err := eng.Reconcile(msg)
			if err != nil {
				return fmt.Errorf("harness: reconcile: %w", err)
			}

			for _, id := range have {
				fmt.Fprintf(w, "have,%s\n", hexutil.Encode(id))
			}
			for _, id := range need {
				fmt.Fprintf(w, "need,%s\n", hexutil.Encode(id))
			}

			if next == nil {
				fmt.Fprintln(w, "done")
				continue
			}
			fmt.Fprintf(w, "msg,%s\n", hexutil.Encode(next))

		default:
			return fmt.Errorf("harness: unknown command: %s", fields[0])
		}

		if err := w.Flush(); err != nil {
			return err
		}
	}

	return scanner.Err()
}

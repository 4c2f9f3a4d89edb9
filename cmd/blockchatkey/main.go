// Command blockchatkey manages BlockChat keyfiles outside of a running
// node. It is an github.com/urfave/cli/v2 app with one subcommand per
// operation: generate, inspect, sign and verify.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/blockchat-network/blockchat/crypto"
	"github.com/blockchat-network/blockchat/keystore"
	"github.com/urfave/cli/v2"
)

var (
	passphraseFlag = &cli.StringFlag{Name: "passphrase", Usage: "passphrase for the keyfile (prompted if omitted)"}
	lightKDFFlag   = &cli.BoolFlag{Name: "lightkdf", Usage: "use faster, less secure scrypt parameters"}
	jsonFlag       = &cli.BoolFlag{Name: "json", Usage: "print machine-readable JSON instead of text"}
)

func main() {
	app := &cli.App{
		Name:  "blockchatkey",
		Usage: "generate, inspect, sign and verify BlockChat keyfiles",
		Commands: []*cli.Command{
			commandGenerate,
			commandInspect,
			commandSign,
			commandVerify,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func readPassphrase(ctx *cli.Context) string {
	if p := ctx.String(passphraseFlag.Name); p != "" {
		return p
	}
	fmt.Fprint(os.Stderr, "Passphrase: ")
	var p string
	fmt.Scanln(&p)
	return p
}

var commandGenerate = &cli.Command{
	Name:      "generate",
	Usage:     "generate a new keyfile",
	ArgsUsage: "<keyfile>",
	Flags:     []cli.Flag{passphraseFlag, lightKDFFlag, jsonFlag},
	Action: func(ctx *cli.Context) error {
		path := ctx.Args().First()
		if path == "" {
			return fmt.Errorf("usage: blockchatkey generate <keyfile>")
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("keyfile already exists at %s", path)
		}

		priv, _, err := crypto.GenerateKeypair()
		if err != nil {
			return err
		}
		key := keystore.NewKey(priv)

		scryptN, scryptP := keystore.StdScryptN, keystore.StdScryptP
		if ctx.Bool(lightKDFFlag.Name) {
			scryptN, scryptP = keystore.LightScryptN, keystore.LightScryptP
		}
		if err := keystore.StoreKey(path, key, readPassphrase(ctx), scryptN, scryptP); err != nil {
			return err
		}

		if ctx.Bool(jsonFlag.Name) {
			return json.NewEncoder(os.Stdout).Encode(map[string]string{"address": key.Address.String()})
		}
		fmt.Println("Address:", key.Address.String())
		return nil
	},
}

var commandInspect = &cli.Command{
	Name:      "inspect",
	Usage:     "print the address held by a keyfile",
	ArgsUsage: "<keyfile>",
	Flags:     []cli.Flag{passphraseFlag, jsonFlag},
	Action: func(ctx *cli.Context) error {
		path := ctx.Args().First()
		if path == "" {
			return fmt.Errorf("usage: blockchatkey inspect <keyfile>")
		}
		key, err := keystore.LoadKey(path, readPassphrase(ctx))
		if err != nil {
			return err
		}
		if ctx.Bool(jsonFlag.Name) {
			return json.NewEncoder(os.Stdout).Encode(map[string]string{
				"address": key.Address.String(),
				"id":      key.Id.String(),
			})
		}
		fmt.Println("Address:", key.Address.String())
		fmt.Println("Id:", key.Id.String())
		return nil
	},
}

var commandSign = &cli.Command{
	Name:      "sign",
	Usage:     "sign a message with a keyfile, printing the envelope as JSON",
	ArgsUsage: "<keyfile> <message>",
	Flags:     []cli.Flag{passphraseFlag},
	Action: func(ctx *cli.Context) error {
		if ctx.Args().Len() != 2 {
			return fmt.Errorf("usage: blockchatkey sign <keyfile> <message>")
		}
		key, err := keystore.LoadKey(ctx.Args().Get(0), readPassphrase(ctx))
		if err != nil {
			return err
		}
		signed, err := crypto.Sign(key.PrivateKey, ctx.Args().Get(1))
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(signed)
	},
}

var commandVerify = &cli.Command{
	Name:      "verify",
	Usage:     "verify a signed envelope read from stdin as JSON",
	ArgsUsage: " ",
	Action: func(ctx *cli.Context) error {
		var signed crypto.Signed[string]
		if err := json.NewDecoder(os.Stdin).Decode(&signed); err != nil {
			return err
		}
		if err := signed.Verify(); err != nil {
			fmt.Println("invalid:", err)
			os.Exit(1)
		}
		fmt.Println("valid")
		return nil
	},
}

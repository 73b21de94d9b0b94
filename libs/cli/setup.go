package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	HomeFlag  = "home"
	TraceFlag = "trace"
)

// InitEnv makes viper read NS_* style environment variables. Variables
// written without the separator, like NSHOME, are copied to NS_HOME first.
func InitEnv(prefix string) {
	prefix = strings.ToUpper(prefix)
	ps := prefix + "_"
	for _, e := range os.Environ() {
		kv := strings.SplitN(e, "=", 2)
		if len(kv) != 2 {
			continue
		}
		k, v := kv[0], kv[1]
		if strings.HasPrefix(k, prefix) && !strings.HasPrefix(k, ps) {
			os.Setenv(strings.Replace(k, prefix, ps, 1), v)
		}
	}

	viper.SetEnvPrefix(prefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

// BindFlagsLoadViper binds the command's flags into viper and reads
// config.toml from the home directory or its config subdirectory, if present.
func BindFlagsLoadViper(cmd *cobra.Command, args []string) error {
	// cmd.Flags() includes flags from this command and all persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	homeDir := viper.GetString(HomeFlag)
	viper.Set(HomeFlag, homeDir)
	viper.SetConfigName("config")
	viper.AddConfigPath(homeDir)
	viper.AddConfigPath(filepath.Join(homeDir, "config"))

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return err
	}
	return nil
}

// RunWithTrace executes cmd and prints any error to stderr, with its full
// chain of causes when --trace is set.
func RunWithTrace(ctx context.Context, cmd *cobra.Command) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return nil
	}

	if viper.GetBool(TraceFlag) {
		fmt.Fprintf(os.Stderr, "ERROR: %+v\n", err)
		for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
			fmt.Fprintf(os.Stderr, "  caused by: %v\n", cause)
		}
	} else {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	}
	return err
}

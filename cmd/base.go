// Package cmd is the base package for executables built from this module.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"reflect"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	bc "github.com/negentropysync/negentropy/config"
	"github.com/negentropysync/negentropy/log"
)

var (
	// Version is the app's semantic version. Designed to be overwritten by make.
	Version string

	// Branch is the git branch used to build the app. Designed to be overwritten by make.
	Branch string

	// Commit is the git commit used to build the app. Designed to be overwritten by make.
	Commit string
)

var (
	mu                      sync.RWMutex
	globalCtx, globalCancel = context.WithCancel(context.Background())
)

// Ctx returns global context.
func Ctx() context.Context {
	mu.RLock()
	defer mu.RUnlock()

	return globalCtx
}

// SetCtx sets global context.
func SetCtx(ctx context.Context) {
	mu.Lock()
	defer mu.Unlock()

	globalCtx = ctx
}

// Cancel returns global cancellation function.
func Cancel() func() {
	mu.RLock()
	defer mu.RUnlock()

	return globalCancel
}

// SetCancel sets global cancellation function.
func SetCancel(cancelFunc func()) {
	mu.Lock()
	defer mu.Unlock()

	globalCancel = cancelFunc
}

// BaseApp is the base application command, providing config loading,
// logging setup, and signal handling shared by all executables.
type BaseApp struct {
	Config *bc.Config
}

// NewBaseApp returns a new basic application.
func NewBaseApp() *BaseApp {
	dc := bc.DefaultConfig()
	return &BaseApp{Config: &dc}
}

// Initialize loads config, sets up the logger, and listens for Ctrl-C.
func (app *BaseApp) Initialize(cmd *cobra.Command) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt)

	go func() {
		for range signalChan {
			log.Info("received an interrupt, stopping...")
			Cancel()()
		}
	}()

	conf, err := parseConfig()
	if err != nil {
		log.Panic("panic: %s", err.Error())
	}

	app.Config = conf
	if err := EnsureCLIFlags(cmd, app.Config); err != nil {
		log.Panic(err.Error())
	}
	setupLogging(app.Config)
}

func setupLogging(config *bc.Config) {
	var level zapcore.Level
	if err := level.Set(config.Logging.Level); err != nil {
		level = zapcore.InfoLevel
	}

	var encoder zapcore.Encoder
	if config.Logging.Encoder == bc.JSONLogEncoder {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}

	log.SetupGlobal(log.NewWithLevel(Version, zap.NewAtomicLevelAt(level), encoder))
}

func parseConfig() (*bc.Config, error) {
	fileLocation := viper.GetString("config")
	vip := viper.New()
	if err := bc.LoadConfig(fileLocation, vip); err != nil {
		log.Warning("couldn't load config file at location: %s, using defaults: %v", fileLocation, err)
	}

	conf := bc.DefaultConfig()
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)

	if err := vip.Unmarshal(&conf, viper.DecodeHook(hook)); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &conf, nil
}

// EnsureCLIFlags checks flag types and assigns any flags the user changed
// on the command line over the values decoded from the config file.
func EnsureCLIFlags(cmd *cobra.Command, appCFG *bc.Config) error {
	assignFields := func(p reflect.Type, elem reflect.Value, name string) {
		for i := 0; i < p.NumField(); i++ {
			if p.Field(i).Tag.Get("mapstructure") == name {
				var val interface{}
				switch p.Field(i).Type.String() {
				case "string":
					val = viper.GetString(name)
				case "int":
					val = viper.GetInt(name)
				case "uint64":
					val = viper.GetUint64(name)
				default:
					val = viper.Get(name)
				}
				elem.Field(i).Set(reflect.ValueOf(val))
				return
			}
		}
	}

	cmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		name := f.Name

		ff := reflect.TypeOf(*appCFG)
		elem := reflect.ValueOf(appCFG).Elem()
		assignFields(ff, elem, name)

		ff = reflect.TypeOf(appCFG.Logging)
		elem = reflect.ValueOf(&appCFG.Logging).Elem()
		assignFields(ff, elem, name)
	})

	return nil
}

// Package cmd /*
package cmd

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string
var envFile string
var Verbose bool
var Debug bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vi-tools",
	Short: "Visible-light vegetation indices for RGB plot imagery",
	Long: `Computes thirteen RGB vegetation indices (ExG, NGRDI, VARI, ...)
	from a 3-band plot image and writes their mean, maximum, minimum and
	standard deviation to CSV:
	./vi-tools computevi --label 20230601_P12 [opts] [rgb_tif] [output_csv]`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML, TOML or JSON)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file with VITOOLS_* settings, ignored when missing")
	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "v", false, "Verbose output")
	err := viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	if err != nil {
		logrus.Exit(1)
	}
	rootCmd.PersistentFlags().BoolVarP(&Debug, "debug", "d", false, "Debug output")
	err = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	if err != nil {
		logrus.Exit(1)
	}
}

// initConfig reads the dotenv file, the environment and the config file, in
// that order of increasing precedence below flags.
func initConfig() {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			logrus.Warnf("Could not load %s: %v", envFile, err)
		}
	}

	viper.SetEnvPrefix("vitools")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			logrus.Fatalf("Reading config %s: %v", cfgFile, err)
		}
	}
	setLogLevels()
}

func setLogLevels() {
	if viper.GetBool("debug") {
		logrus.SetLevel(logrus.DebugLevel)
	} else if viper.GetBool("verbose") {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}
}

// bindFlag binds a local flag of cmd to the viper key of the same name.
func bindFlag(cmd *cobra.Command, name string) {
	if err := viper.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
		logrus.Exit(1)
	}
}

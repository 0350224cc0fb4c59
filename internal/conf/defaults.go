// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "EchoTube")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "echotube.log")

	viper.SetDefault("audio.samplerate", 48000)
	viper.SetDefault("audio.recordms", 60)
	viper.SetDefault("audio.device", "")

	viper.SetDefault("echo.ignorefirstms", 2)
	viper.SetDefault("echo.searchstartms", 6)
	viper.SetDefault("echo.searchendms", 55)

	// 10 ft tube is roughly 3.05 m, put your best estimate here
	viper.SetDefault("tube.distancem", 3.0)

	viper.SetDefault("buzzer.enabled", true)
	viper.SetDefault("buzzer.pin", "GPIO18")
	viper.SetDefault("buzzer.onms", 8)

	viper.SetDefault("export.enabled", false)
	viper.SetDefault("export.path", "captures/")

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8080")
}

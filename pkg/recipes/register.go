package recipes

import (
	"github.com/fieldforge/fieldforge/pkg/recipe"
)

// RegisterBuiltins registers every built-in recipe into reg. It must run
// once, at startup, before any resolution; a name collision means two
// built-ins claim the same name and aborts initialization.
func RegisterBuiltins(reg *recipe.Registry) error {
	builtins := map[string]recipe.Factory{
		AirTemperatureName:       NewAirTemperature,
		PotentialTemperatureName: NewPotentialTemperature,
		VirtualTemperatureName:   NewVirtualTemperature,
		TotalMassMoistAirName:    NewTotalMassMoistAir,
		SpecificHumidityName:     NewSpecificHumidity,
		RelativeHumidityName:     NewRelativeHumidity,
		AirPressureLevelsName:    NewAirPressureLevels,
		ParamAName:               NewParamA,
		ParamBName:               NewParamB,
	}
	for name, factory := range builtins {
		if err := reg.Register(name, factory); err != nil {
			return err
		}
	}
	return nil
}

// DefaultCookbook returns the built-in mapping from derivable variables to
// candidate recipes, in priority order.
func DefaultCookbook() map[string][]string {
	return map[string][]string{
		"air_temperature":       {AirTemperatureName},
		"potential_temperature": {PotentialTemperatureName},
		"virtual_temperature":   {VirtualTemperatureName},
		"m_t":                   {TotalMassMoistAirName},
		"specific_humidity":     {SpecificHumidityName},
		"relative_humidity":     {RelativeHumidityName},
		"air_pressure_levels":   {AirPressureLevelsName},
		"param_a":               {ParamAName},
		"param_b":               {ParamBName},
	}
}

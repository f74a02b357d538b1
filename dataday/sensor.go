package dataday

// Sensor identifies which per-sensor temporal-selection table to apply.
// Unknown/unsupported sensors are a semantic error (§7), raised by the
// caller before Classify is invoked.
type Sensor string

const (
	SensorMODISA  Sensor = "MODISA"
	SensorVIIRSN  Sensor = "VIIRSN"
	SensorHMODISA Sensor = "HMODISA"
	SensorMODIST  Sensor = "MODIST"
	SensorHMODIST Sensor = "HMODIST"
	SensorSeaWiFS Sensor = "SeaWiFS"
	SensorCZCS    Sensor = "CZCS"
	SensorOCM2    Sensor = "OCM2"
	SensorMERIS   Sensor = "MERIS"
	SensorOCTS    Sensor = "OCTS"
)

// isModisA reports whether the sensor uses the MODIS-A/VIIRSN table.
func isModisA(s Sensor) bool {
	switch s {
	case SensorMODISA, SensorVIIRSN, SensorHMODISA:
		return true
	}
	return false
}

// isModisT reports whether the sensor uses the MODIS-T table.
func isModisT(s Sensor) bool {
	switch s {
	case SensorMODIST, SensorHMODIST:
		return true
	}
	return false
}

// isSeaWiFSFamily reports whether the sensor uses the SeaWiFS/CZCS/OCM2
// table (one scancross rule and one pair of p1hr/m1hr thresholds shared
// by all three).
func isSeaWiFSFamily(s Sensor) bool {
	switch s {
	case SensorSeaWiFS, SensorCZCS, SensorOCM2:
		return true
	}
	return false
}

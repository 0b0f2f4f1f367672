package macro

// DefaultRamming shapes the filament tip before an unload.
const DefaultRamming = `G1 E1 F1000
G1 E1 F1500
G1 E2 F2000
G1 E1.5 F3000
G1 E2.5 F4000
G1 E-15 F5000
G1 E-14 F1200
G1 E-6 F600
G1 E10 F700
G1 E-10 F400
G1 E-50 F2000
`

// DefaultLoadToNozzle pushes the filament from the extruder gears into the
// nozzle once the unit finished loading. Context: fsensor_to_nozzle (mm),
// extra_load_distance (mm, already pushed by the unit) and load_feedrate
// (mm/s).
const DefaultLoadToNozzle = `M400
G1 E{{ fsensor_to_nozzle - extra_load_distance }} F{{ load_feedrate * 60 }}
G1 E10 F{{ load_feedrate * 20 }}
M400
`

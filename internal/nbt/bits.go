package nbt

import "math"

func int32ToFloat32(v int32) float32 { return math.Float32frombits(uint32(v)) }
func float32ToInt32(v float32) int32 { return int32(math.Float32bits(v)) }

func int64ToFloat64(v int64) float64 { return math.Float64frombits(uint64(v)) }
func float64ToInt64(v float64) int64 { return int64(math.Float64bits(v)) }

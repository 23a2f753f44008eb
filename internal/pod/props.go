package pod

import "fmt"

// Object types.
const (
	ObjectPropInfo        uint32 = 0x40001
	ObjectProps           uint32 = 0x40002
	ObjectFormat          uint32 = 0x40003
	ObjectParamBuffers    uint32 = 0x40004
	ObjectParamMeta       uint32 = 0x40005
	ObjectParamIO         uint32 = 0x40006
	ObjectParamProfile    uint32 = 0x40007
	ObjectParamPortConfig uint32 = 0x40008
	ObjectParamRoute      uint32 = 0x40009
	ObjectProfiler        uint32 = 0x4000a
	ObjectParamLatency    uint32 = 0x4000b
)

// Param ids, carried as the object id.
const (
	ParamInvalid        uint32 = 0
	ParamPropInfo       uint32 = 1
	ParamProps          uint32 = 2
	ParamEnumFormat     uint32 = 3
	ParamFormat         uint32 = 4
	ParamBuffers        uint32 = 5
	ParamMeta           uint32 = 6
	ParamIO             uint32 = 7
	ParamEnumProfile    uint32 = 8
	ParamProfile        uint32 = 9
	ParamEnumPortConfig uint32 = 10
	ParamPortConfig     uint32 = 11
	ParamEnumRoute      uint32 = 12
	ParamRoute          uint32 = 13
	ParamControl        uint32 = 14
	ParamLatency        uint32 = 15
	ParamProcessLatency uint32 = 16
)

// Property keys of ObjectProps.
const (
	PropUnknown uint32 = 0x1

	PropDevice      uint32 = 0x101
	PropDeviceName  uint32 = 0x102
	PropDeviceFd    uint32 = 0x103
	PropCard        uint32 = 0x104
	PropCardName    uint32 = 0x105
	PropMinLatency  uint32 = 0x106
	PropMaxLatency  uint32 = 0x107
	PropPeriods     uint32 = 0x108
	PropPeriodSize  uint32 = 0x109
	PropPeriodEvent uint32 = 0x10a
	PropLive        uint32 = 0x10b
	PropRate        uint32 = 0x10c
	PropQuality     uint32 = 0x10d

	PropWaveType       uint32 = 0x10001
	PropFrequency      uint32 = 0x10002
	PropVolume         uint32 = 0x10003
	PropMute           uint32 = 0x10004
	PropPatternType    uint32 = 0x10005
	PropDitherType     uint32 = 0x10006
	PropTruncate       uint32 = 0x10007
	PropChannelVolumes uint32 = 0x10008
	PropVolumeBase     uint32 = 0x10009
	PropVolumeStep     uint32 = 0x1000a
	PropChannelMap     uint32 = 0x1000b
	PropMonitorMute    uint32 = 0x1000c
	PropMonitorVolumes uint32 = 0x1000d
	PropLatencyOffset  uint32 = 0x1000e
	PropSoftMute       uint32 = 0x1000f
	PropSoftVolumes    uint32 = 0x10010
)

// Property flags.
const (
	PropFlagReadOnly   uint32 = 1 << 0
	PropFlagHardware   uint32 = 1 << 1
	PropFlagHintDict   uint32 = 1 << 2
	PropFlagMandatory  uint32 = 1 << 3
	PropFlagDontFixate uint32 = 1 << 4
)

var objectNames = map[uint32]string{
	ObjectPropInfo:        "PropInfo",
	ObjectProps:           "Props",
	ObjectFormat:          "Format",
	ObjectParamBuffers:    "ParamBuffers",
	ObjectParamMeta:       "ParamMeta",
	ObjectParamIO:         "ParamIO",
	ObjectParamProfile:    "ParamProfile",
	ObjectParamPortConfig: "ParamPortConfig",
	ObjectParamRoute:      "ParamRoute",
	ObjectProfiler:        "Profiler",
	ObjectParamLatency:    "ParamLatency",
}

var paramNames = map[uint32]string{
	ParamInvalid:        "Invalid",
	ParamPropInfo:       "PropInfo",
	ParamProps:          "Props",
	ParamEnumFormat:     "EnumFormat",
	ParamFormat:         "Format",
	ParamBuffers:        "Buffers",
	ParamMeta:           "Meta",
	ParamIO:             "IO",
	ParamEnumProfile:    "EnumProfile",
	ParamProfile:        "Profile",
	ParamEnumPortConfig: "EnumPortConfig",
	ParamPortConfig:     "PortConfig",
	ParamEnumRoute:      "EnumRoute",
	ParamRoute:          "Route",
	ParamControl:        "Control",
	ParamLatency:        "Latency",
	ParamProcessLatency: "ProcessLatency",
}

var propNames = map[uint32]string{
	PropUnknown:        "unknown",
	PropDevice:         "device",
	PropDeviceName:     "deviceName",
	PropDeviceFd:       "deviceFd",
	PropCard:           "card",
	PropCardName:       "cardName",
	PropMinLatency:     "minLatency",
	PropMaxLatency:     "maxLatency",
	PropPeriods:        "periods",
	PropPeriodSize:     "periodSize",
	PropPeriodEvent:    "periodEvent",
	PropLive:           "live",
	PropRate:           "rate",
	PropQuality:        "quality",
	PropWaveType:       "waveType",
	PropFrequency:      "frequency",
	PropVolume:         "volume",
	PropMute:           "mute",
	PropPatternType:    "patternType",
	PropDitherType:     "ditherType",
	PropTruncate:       "truncate",
	PropChannelVolumes: "channelVolumes",
	PropVolumeBase:     "volumeBase",
	PropVolumeStep:     "volumeStep",
	PropChannelMap:     "channelMap",
	PropMonitorMute:    "monitorMute",
	PropMonitorVolumes: "monitorVolumes",
	PropLatencyOffset:  "latencyOffset",
	PropSoftMute:       "softMute",
	PropSoftVolumes:    "softVolumes",
}

// ObjectName returns the registered name of an object type.
func ObjectName(t uint32) string {
	if n, ok := objectNames[t]; ok {
		return n
	}
	return fmt.Sprintf("%#x", t)
}

// ParamName returns the registered name of a param id.
func ParamName(id uint32) string {
	if n, ok := paramNames[id]; ok {
		return n
	}
	return fmt.Sprintf("%d", id)
}

// PropName returns the registered name of a property key.
func PropName(key uint32) string {
	if n, ok := propNames[key]; ok {
		return n
	}
	return fmt.Sprintf("%#x", key)
}

// PropKey looks a property key up by name.
func PropKey(name string) (uint32, bool) {
	for k, n := range propNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

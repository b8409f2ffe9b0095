package astiavlogger

import (
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/iancoleman/strcase"
)

var classCategoryNames = map[astiav.ClassCategory]string{
	astiav.ClassCategoryNa:                "Generic",
	astiav.ClassCategoryInput:             "Input",
	astiav.ClassCategoryOutput:            "Output",
	astiav.ClassCategoryMuxer:             "Muxer",
	astiav.ClassCategoryDemuxer:           "Demuxer",
	astiav.ClassCategoryEncoder:           "Encoder",
	astiav.ClassCategoryDecoder:           "Decoder",
	astiav.ClassCategoryFilter:            "Filter",
	astiav.ClassCategoryBitstreamFilter:   "BitstreamFilter",
	astiav.ClassCategorySwscaler:          "Swscaler",
	astiav.ClassCategorySwresampler:       "Swresampler",
	astiav.ClassCategoryDeviceVideoOutput: "DeviceVideoOutput",
	astiav.ClassCategoryDeviceVideoInput:  "DeviceVideoInput",
	astiav.ClassCategoryDeviceAudioOutput: "DeviceAudioOutput",
	astiav.ClassCategoryDeviceAudioInput:  "DeviceAudioInput",
	astiav.ClassCategoryDeviceOutput:      "DeviceOutput",
	astiav.ClassCategoryDeviceInput:       "DeviceInput",
}

// classCategoryName returns the snake_case kind of an FFmpeg component,
// as used in the "av_class" log field.
func classCategoryName(cat astiav.ClassCategory) string {
	name, ok := classCategoryNames[cat]
	if !ok {
		return fmt.Sprintf("category_%d", int(cat))
	}
	return strcase.ToSnake(name)
}

package configparser

import (
	"strings"
	"testing"
)

var testOptions []Option
var testAddr uint64
var testValue string
var testType string

func resetTest() {
	testOptions = nil
	testAddr = NoAddr
	testValue = "error"
	testType = ""
}

func cleanUpConfig() {
	models = map[string]modelDef{}
	resetTest()
}

func modDevice(addr uint64, value string, options []Option) error {
	testAddr = addr
	testValue = value
	testType = "model"
	testOptions = options
	return nil
}

func modSwitch(addr uint64, value string, options []Option) error {
	testAddr = addr
	testValue = value
	testType = "switch"
	testOptions = options
	return nil
}

func modOption(addr uint64, value string, options []Option) error {
	testAddr = addr
	testValue = value
	testType = "option"
	testOptions = options
	return nil
}

func TestRegisterModel(t *testing.T) {
	defer cleanUpConfig()
	resetTest()
	RegisterModel("clint", modDevice)
	if getModel("CLINT") != TypeModel {
		t.Errorf("RegisterModel did not register under the upper-cased name")
	}
}

func TestLoadConfigDeviceLine(t *testing.T) {
	defer cleanUpConfig()
	resetTest()
	RegisterModel("CLINT", modDevice)

	err := LoadConfig(strings.NewReader("CLINT 0x02000000 freq_hz=1000000\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if testType != "model" {
		t.Fatalf("device line did not dispatch to the model handler")
	}
	if testAddr != 0x02000000 {
		t.Errorf("addr = %#x, want 0x02000000", testAddr)
	}
	if len(testOptions) != 1 || testOptions[0].Name != "freq_hz" || testOptions[0].EqualOpt != "1000000" {
		t.Errorf("options = %+v, want one freq_hz=1000000", testOptions)
	}
}

func TestLoadConfigSwitchLine(t *testing.T) {
	defer cleanUpConfig()
	resetTest()
	RegisterSwitch("REALTIME", modSwitch)

	if err := LoadConfig(strings.NewReader("realtime\n")); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if testType != "switch" {
		t.Errorf("switch line did not dispatch to the switch handler")
	}
}

func TestLoadConfigOptionLine(t *testing.T) {
	defer cleanUpConfig()
	resetTest()
	RegisterOption("HARTCONFIG", modOption)

	if err := LoadConfig(strings.NewReader("hartconfig MS,MS\n")); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if testType != "option" || testValue != "MS,MS" {
		t.Errorf("got type=%q value=%q, want option/MS,MS", testType, testValue)
	}
}

func TestLoadConfigCommentsAndBlankLinesIgnored(t *testing.T) {
	defer cleanUpConfig()
	resetTest()
	RegisterModel("CLINT", modDevice)

	err := LoadConfig(strings.NewReader("# a whole comment line\n\nCLINT 0x1000\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if testAddr != 0x1000 {
		t.Errorf("addr = %#x, want 0x1000", testAddr)
	}
}

func TestLoadConfigUnknownModelErrors(t *testing.T) {
	defer cleanUpConfig()
	resetTest()
	if err := LoadConfig(strings.NewReader("BOGUS 0x1000\n")); err == nil {
		t.Errorf("unregistered model line should error")
	}
}

func TestDeviceLineRequiresAddress(t *testing.T) {
	defer cleanUpConfig()
	resetTest()
	RegisterModel("CLINT", modDevice)
	if err := LoadConfig(strings.NewReader("CLINT freq_hz=100\n")); err == nil {
		t.Errorf("device line without a base address should error")
	}
}

func TestMultipleOptionsOnOneLine(t *testing.T) {
	defer cleanUpConfig()
	resetTest()
	RegisterModel("PLIC", modDevice)

	err := LoadConfig(strings.NewReader("PLIC 0x0c000000 sources=4 priorities=7\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(testOptions) != 2 {
		t.Fatalf("options = %+v, want 2 entries", testOptions)
	}
	if testOptions[0].EqualOpt != "4" || testOptions[1].EqualOpt != "7" {
		t.Errorf("options = %+v, want sources=4 priorities=7", testOptions)
	}
}

func TestCommaExtendsOptionValueList(t *testing.T) {
	defer cleanUpConfig()
	resetTest()
	RegisterModel("FILTER", modDevice)

	err := LoadConfig(strings.NewReader("FILTER 0x1000 allow=a,b,c\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(testOptions) != 1 {
		t.Fatalf("options = %+v, want 1 entry", testOptions)
	}
	if len(testOptions[0].Value) != 2 {
		t.Errorf("Value = %+v, want 2 comma-continued tokens", testOptions[0].Value)
	}
}

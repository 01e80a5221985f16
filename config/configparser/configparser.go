/*
 * riscv-isa-sim - Machine description parser
 *
 * Copyright 2026, riscv-isa-sim Contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package configparser reads a line-oriented machine description: one
// device per line, a model name, a base address, and a set of options.
// Device models register themselves with RegisterModel et al. from an
// init function; LoadConfigFile then drives construction in file order so
// later lines (PLIC, filters) can reference harts and devices earlier
// lines already created.
package configparser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"
)

// NoAddr marks a model line with no base address (a global option rather
// than a bus device).
const NoAddr = ^uint64(0)

// Option is one whitespace- or comma-separated option token, optionally
// carrying an `=value` and a further comma-separated value list.
type Option struct {
	Name     string
	EqualOpt string
	Value    []*string
}

type modelName struct {
	model string
}

// FirstOption is the token immediately after the model name: a hex base
// address for bus devices, or a bare string for global options.
type FirstOption struct {
	addr   uint64
	isAddr bool
	value  string
}

type optionLine struct {
	line string
	pos  int
}

/* Machine description line format:
 *
 * '#' indicates a comment; rest of line is ignored.
 * <line> := <model> <whitespace> (<addr> | <string>) <whitespace> <options>
 * <model>   ::= <letters>
 * <addr>    ::= '0x' <hexdigits>
 * <options> ::= *(<option> <whitespace>)
 * <option>  ::= <name> ['=' <quoteopt>] *(',' <string>)
 */

const (
	TypeModel   = 1 + iota // device with a base address and option list
	TypeOption             // global option taking one value
	TypeOptions            // global option taking a value plus sub-options
	TypeSwitch             // flag option with no value
)

type modelDef struct {
	create func(addr uint64, value string, options []Option) error
	ty     int
}

var models = map[string]modelDef{}

var lineNumber int

func getModel(mod string) int {
	model, ok := models[mod]
	if !ok {
		return 0
	}
	return model.ty
}

// RegisterModel registers a bus-device line handler, called from an
// init function of the package implementing that device.
func RegisterModel(mod string, fn func(addr uint64, value string, options []Option) error) {
	models[strings.ToUpper(mod)] = modelDef{create: fn, ty: TypeModel}
}

// RegisterSwitch registers a no-argument flag line handler.
func RegisterSwitch(mod string, fn func(addr uint64, value string, options []Option) error) {
	models[strings.ToUpper(mod)] = modelDef{create: fn, ty: TypeSwitch}
}

// RegisterOption registers a single-value global option line handler.
func RegisterOption(mod string, fn func(addr uint64, value string, options []Option) error) {
	models[strings.ToUpper(mod)] = modelDef{create: fn, ty: TypeOption}
}

// RegisterOptions registers a value-plus-suboptions global option line
// handler.
func RegisterOptions(mod string, fn func(addr uint64, value string, options []Option) error) {
	models[strings.ToUpper(mod)] = modelDef{create: fn, ty: TypeOptions}
}

func createModel(mod string, first *FirstOption, options []Option) error {
	mod = strings.ToUpper(mod)
	model, ok := models[mod]
	if !ok {
		return fmt.Errorf("unknown model: %s", mod)
	}
	if model.ty != TypeModel {
		return fmt.Errorf("not a device model: %s", mod)
	}
	return model.create(first.addr, first.value, options)
}

func createOption(mod string, first *FirstOption) error {
	mod = strings.ToUpper(mod)
	model, ok := models[mod]
	if !ok {
		return fmt.Errorf("unknown option: %s", mod)
	}
	if model.ty != TypeOption {
		return fmt.Errorf("not a single-value option: %s", mod)
	}
	return model.create(NoAddr, first.value, nil)
}

func createOptions(mod string, first *FirstOption, options []Option) error {
	mod = strings.ToUpper(mod)
	model, ok := models[mod]
	if !ok {
		return fmt.Errorf("unknown option: %s", mod)
	}
	if model.ty != TypeOptions {
		return fmt.Errorf("not an options-bearing directive: %s", mod)
	}
	return model.create(NoAddr, first.value, options)
}

func createSwitch(mod string) error {
	mod = strings.ToUpper(mod)
	model, ok := models[mod]
	if !ok {
		return fmt.Errorf("unknown switch: %s", mod)
	}
	if model.ty != TypeSwitch {
		return fmt.Errorf("not a switch: %s", mod)
	}
	return model.create(NoAddr, "", nil)
}

// LoadConfigFile reads and executes a machine description file line by
// line, in order.
func LoadConfigFile(name string) error {
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()
	return LoadConfig(file)
}

// LoadConfig reads and executes a machine description from r.
func LoadConfig(r io.Reader) error {
	lineNumber = 0
	reader := bufio.NewReader(r)
	for {
		line := optionLine{}
		var err error
		line.line, err = reader.ReadString('\n')
		lineNumber++
		if len(line.line) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if err := line.parseLine(); err != nil {
			return fmt.Errorf("line %d: %w", lineNumber, err)
		}
	}
	return nil
}

func (line *optionLine) parseLine() error {
	model := line.parseModel()
	if model == nil {
		return nil
	}
	switch getModel(model.model) {
	case TypeModel:
		first := line.parseFirst()
		if first == nil || !first.isAddr {
			return fmt.Errorf("device %s requires a base address", model.model)
		}
		options, err := line.parseOptions()
		if err != nil {
			return err
		}
		return createModel(model.model, first, options)

	case TypeOption:
		first := line.parseFirst()
		line.skipSpace()
		if first == nil || !line.isEOL() {
			return fmt.Errorf("option %s not followed by a single value", model.model)
		}
		return createOption(model.model, first)

	case TypeOptions:
		first := line.parseFirst()
		if first == nil {
			return fmt.Errorf("option %s not followed by a value", model.model)
		}
		options, err := line.parseOptions()
		if err != nil {
			return err
		}
		return createOptions(model.model, first, options)

	case TypeSwitch:
		line.skipSpace()
		if !line.isEOL() {
			return fmt.Errorf("switch %s followed by unexpected options", model.model)
		}
		return createSwitch(model.model)

	case 0:
		return fmt.Errorf("no directive registered for %s", model.model)
	}
	return nil
}

func (line *optionLine) skipSpace() {
	for line.pos < len(line.line) && unicode.IsSpace(rune(line.line[line.pos])) {
		line.pos++
	}
}

func (line *optionLine) isEOL() bool {
	if line.pos >= len(line.line) {
		return true
	}
	return line.line[line.pos] == '#'
}

// isIdentChar reports whether by may appear in an option or model name.
// Unlike the channel-device model names this grammar was adapted from,
// register and timing options are conventionally snake_case, so '_' is an
// identifier character here.
func isIdentChar(by byte) bool {
	return unicode.IsLetter(rune(by)) || unicode.IsNumber(rune(by)) || by == '_'
}

func (line *optionLine) getNext(inQuote bool) byte {
	line.pos++
	if line.isEOL() {
		return 0
	}
	by := line.line[line.pos]
	if isIdentChar(by) || inQuote {
		return by
	}
	return 0
}

func (line *optionLine) getPeek() byte {
	if (line.pos + 1) >= len(line.line) {
		return 0
	}
	return line.line[line.pos+1]
}

func (line *optionLine) parseModel() *modelName {
	line.skipSpace()
	if line.isEOL() {
		return nil
	}
	model := modelName{}
	for !line.isEOL() {
		by := line.line[line.pos]
		if isIdentChar(by) {
			model.model += string(by)
			line.pos++
			continue
		}
		break
	}
	model.model = strings.ToUpper(model.model)
	return &model
}

// parseFirst reads the token right after the model name: a 0x-prefixed
// hex base address if present, otherwise a bare identifier string.
func (line *optionLine) parseFirst() *FirstOption {
	line.skipSpace()
	if line.isEOL() {
		return nil
	}

	value := ""
	for !line.isEOL() {
		by := line.line[line.pos]
		if isIdentChar(by) {
			value += string(by)
			line.pos++
			continue
		}
		break
	}

	option := FirstOption{addr: NoAddr, value: value}
	hexPart := strings.TrimPrefix(strings.TrimPrefix(value, "0x"), "0X")
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		if addr, err := strconv.ParseUint(hexPart, 16, 64); err == nil {
			option.addr = addr
			option.isAddr = true
		}
	}
	return &option
}

func (line *optionLine) parseQuoteString() (string, bool) {
	inQuote := false
	value := ""

	if line.getPeek() == '"' {
		inQuote = true
		_ = line.getNext(true)
	}

	for {
		by := line.getNext(inQuote)
		if by == '"' && inQuote {
			by = line.getNext(inQuote)
			if by != '"' {
				return value, true
			}
		}

		space := unicode.IsSpace(rune(by))
		if !inQuote && (space || by == 0 || by == ',') {
			return value, true
		}

		value += string(by)
		if line.isEOL() {
			return value, !inQuote
		}
	}
}

func (line *optionLine) getName() (string, error) {
	if line.isEOL() {
		return "", nil
	}
	by := line.line[line.pos]
	if !unicode.IsLetter(rune(by)) {
		if !line.isEOL() {
			return "", fmt.Errorf("invalid option at column %d", line.pos)
		}
		return "", nil
	}
	value := ""
	for {
		value += string(by)
		by = line.getNext(false)
		if by == 0 {
			break
		}
	}
	return value, nil
}

func (line *optionLine) parseOption() (*Option, error) {
	line.skipSpace()

	value, err := line.getName()
	if value == "" {
		return nil, err
	}

	option := Option{Name: value}
	if line.isEOL() {
		return &option, nil
	}

	if line.line[line.pos] == '=' {
		v, ok := line.parseQuoteString()
		if !ok {
			return nil, fmt.Errorf("invalid quoted string at column %d", line.pos)
		}
		option.EqualOpt = v
	}

	line.skipSpace()
	for !line.isEOL() && line.line[line.pos] == ',' {
		line.pos++
		line.skipSpace()
		v, err := line.getName()
		if err != nil {
			return nil, err
		}
		if v != "" {
			option.Value = append(option.Value, &v)
		}
		line.skipSpace()
	}

	return &option, nil
}

func (line *optionLine) parseOptions() ([]Option, error) {
	var options []Option
	for {
		option, err := line.parseOption()
		if err != nil {
			return nil, err
		}
		if option == nil {
			break
		}
		options = append(options, *option)
	}
	return options, nil
}

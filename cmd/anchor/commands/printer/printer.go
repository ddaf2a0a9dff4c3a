// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package printer

import (
	"fmt"
	"io"
	"strings"

	vgjson "code.vegaprotocol.io/anchor/libs/json"
	vgterm "code.vegaprotocol.io/anchor/libs/term"

	"github.com/fatih/color"
)

// InteractivePrinter formats the responses meant to be read by a human.
// Colours are only emitted when the writer is a terminal.
type InteractivePrinter struct {
	writer io.Writer

	success func(a ...interface{}) string
	danger  func(a ...interface{}) string
	warning func(a ...interface{}) string
	info    func(a ...interface{}) string
	bold    func(a ...interface{}) string
	code    func(a ...interface{}) string

	checkMark string
	crossMark string
	bangMark  string
	arrow     string
}

func NewInteractivePrinter(w io.Writer) *InteractivePrinter {
	colored := vgterm.IsTerminal(w)

	sprint := func(attrs ...color.Attribute) func(a ...interface{}) string {
		c := color.New(attrs...)
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}

	p := &InteractivePrinter{
		writer:  w,
		success: sprint(color.FgGreen),
		danger:  sprint(color.FgRed),
		warning: sprint(color.FgYellow),
		info:    sprint(color.FgBlue),
		bold:    sprint(color.Bold),
		code:    sprint(color.FgCyan),
	}
	p.checkMark = p.success("✓ ")
	p.crossMark = p.danger("✗ ")
	p.bangMark = p.warning("! ")
	p.arrow = p.info("➜ ")
	return p
}

func (p *InteractivePrinter) String() *FormattedString {
	return &FormattedString{p: p}
}

func (p *InteractivePrinter) Print(str *FormattedString) {
	_, _ = fmt.Fprint(p.writer, str.String())
}

type FormattedString struct {
	p  *InteractivePrinter
	sb strings.Builder
}

func (s *FormattedString) String() string {
	return s.sb.String()
}

func (s *FormattedString) Text(str string) *FormattedString {
	s.sb.WriteString(str)
	return s
}

func (s *FormattedString) Pad() *FormattedString {
	s.sb.WriteString("  ")
	return s
}

func (s *FormattedString) CheckMark() *FormattedString {
	s.sb.WriteString(s.p.checkMark)
	return s
}

func (s *FormattedString) CrossMark() *FormattedString {
	s.sb.WriteString(s.p.crossMark)
	return s
}

func (s *FormattedString) WarningBangMark() *FormattedString {
	s.sb.WriteString(s.p.bangMark)
	return s
}

func (s *FormattedString) BlueArrow() *FormattedString {
	s.sb.WriteString(s.p.arrow)
	return s
}

func (s *FormattedString) SuccessText(str string) *FormattedString {
	s.sb.WriteString(s.p.success(str))
	return s
}

func (s *FormattedString) DangerText(str string) *FormattedString {
	s.sb.WriteString(s.p.danger(str))
	return s
}

func (s *FormattedString) WarningText(str string) *FormattedString {
	s.sb.WriteString(s.p.warning(str))
	return s
}

func (s *FormattedString) InfoText(str string) *FormattedString {
	s.sb.WriteString(s.p.info(str))
	return s
}

func (s *FormattedString) Bold(str string) *FormattedString {
	s.sb.WriteString(s.p.bold(str))
	return s
}

func (s *FormattedString) Code(str string) *FormattedString {
	s.sb.WriteString("    " + s.p.code(str))
	return s
}

// Field writes an indented "Name: value" line.
func (s *FormattedString) Field(name, value string) *FormattedString {
	return s.Pad().Text(name + ": ").Bold(value).NextLine()
}

func (s *FormattedString) NextLine() *FormattedString {
	s.sb.WriteString("\n")
	return s
}

func (s *FormattedString) NextSection() *FormattedString {
	s.sb.WriteString("\n\n")
	return s
}

func FprintJSON(w io.Writer, data interface{}) error {
	return vgjson.FprettyPrint(w, data)
}

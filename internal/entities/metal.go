package entities

import (
	"fmt"
	"strings"
)

type Metal string

const (
	Gold      Metal = "gold"
	Silver    Metal = "silver"
	Platinum  Metal = "platinum"
	Palladium Metal = "palladium"
)

// Metals lists the supported metals in display order.
var Metals = []Metal{Gold, Silver, Platinum, Palladium}

type metalInfo struct {
	code     int
	color    string
	singular string
	plural   string
}

// Colors come from the CBR precious metals page palette and are not configurable.
var metalInfos = map[Metal]metalInfo{
	Gold:      {code: 1, color: "rgb(255, 102, 10)", singular: "золото", plural: "золота"},
	Silver:    {code: 2, color: "rgb(137, 137, 137)", singular: "серебро", plural: "серебра"},
	Platinum:  {code: 3, color: "rgb(134, 176, 102)", singular: "платина", plural: "платины"},
	Palladium: {code: 4, color: "rgb(97, 125, 180)", singular: "палладий", plural: "палладия"},
}

func ParseMetal(s string) (Metal, error) {
	m := Metal(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := metalInfos[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMetal, s)
	}
	return m, nil
}

// MetalByCode maps a CBR metal code (1..4) to a Metal.
func MetalByCode(code int) (Metal, error) {
	for m, info := range metalInfos {
		if info.code == code {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: code %d", ErrUnknownMetal, code)
}

func (m Metal) Valid() bool {
	_, ok := metalInfos[m]
	return ok
}

// Color returns the fixed line color of the metal.
func (m Metal) Color() (string, error) {
	info, ok := metalInfos[m]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMetal, string(m))
	}
	return info.color, nil
}

func (m Metal) Code() int { return metalInfos[m].code }

// Title is the capitalized singular name, used for column headers.
func (m Metal) Title() string {
	s := metalInfos[m].singular
	if s == "" {
		return string(m)
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

// Plural is the genitive form used in chart titles ("Стоимость грамма золота").
func (m Metal) Plural() string { return metalInfos[m].plural }

func (m Metal) String() string { return string(m) }

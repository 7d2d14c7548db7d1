package jit

import "math"

type programCase struct {
	name   string
	src    string
	inputs []float64
	want   []float64 // nil when only compared against the interpreter
}

var programCases = []programCase{
	{
		name: "call and return",
		src: `
			call t
			push ax
			out
			hlt
		t:
			push 7.0
			pop ax
			ret`,
		want: []float64{7},
	},
	{
		name: "arithmetic order",
		src: `
			push 2
			push 10
			sub
			out
			push 3
			mul
			out
			push 0.5
			div
			out
			sqrt
			out`,
		want: []float64{8, 24, 0.5 / 24, math.Sqrt(0.5 / 24)},
	},
	{
		name: "sum loop",
		src: `
			push 0
			pop ax
			push 0
			pop bx
		loop:
			push ax
			push 1
			add
			pop ax
			push bx
			push ax
			add
			pop bx
			push 10
			push ax
			jb loop
			push bx
			out
			pop [0]
			hlt`,
		want: []float64{55},
	},
	{
		name: "indexed fill",
		src: `
			push 0
			pop ax
		fill:
			push ax
			push ax
			mul
			pop [ax]
			push ax
			push 1
			add
			pop ax
			push 20
			push ax
			jb fill
			push [7]
			out`,
		want: []float64{49},
	},
	{
		name: "nested calls",
		src: `
			push 3
			pop ax
			call sq
			push ax
			out
			hlt
		sq:
			push ax
			push ax
			mul
			pop ax
			call inc
			ret
		inc:
			push 1
			push ax
			add
			pop ax
			ret`,
		want: []float64{10},
	},
	{
		name: "input compare",
		src: `
			in
			in
			ja first
			push 0
			out
			hlt
		first:
			push 1
			out`,
		inputs: []float64{5, 3},
		want:   []float64{0},
	},
	{
		name: "input compare taken",
		src: `
			in
			in
			ja first
			push 0
			out
			hlt
		first:
			push 1
			out`,
		inputs: []float64{3, 5},
		want:   []float64{1},
	},
	{
		name: "nan is never equal",
		src: `
			push -1
			sqrt
			pop ax
			push ax
			push ax
			je eq
			push 1
			out
			hlt
		eq:
			push 2
			out`,
		want: []float64{1},
	},
	{
		name: "equal",
		src: `
			push 4
			push 4
			je eq
			push 1
			out
			hlt
		eq:
			push 2
			out`,
		want: []float64{2},
	},
	{
		name: "unknown opcodes",
		src: `
			push 1
			.word 99
			push 2
			.word 1000
			add
			out`,
		want: []float64{3},
	},
	{
		name: "last cell and wraparound",
		src: `
			push 4.5
			pop [1023]
			push [1023]
			out
			push -1
			pop cx
			push 6
			pop [cx]
			push [1023]
			out
			push 1025.7
			pop dx
			push [dx]
			out`,
		want: []float64{4.5, 6, 0},
	},
	{
		name: "registers survive io",
		src: `
			push 1
			pop ax
			push 2
			pop bx
			push 3
			pop cx
			push 4
			pop dx
			in
			out
			pop
			push ax
			push bx
			add
			push cx
			add
			push dx
			add
			out`,
		inputs: []float64{9},
		want:   []float64{9, 10},
	},
	{
		name: "countdown with jmp",
		src: `
			push 3
			pop ax
		again:
			push 0
			push ax
			je done
			push ax
			out
			pop
			push -1
			push ax
			add
			pop ax
			jmp again
		done:
			hlt`,
		want: []float64{3, 2, 1},
	},
}

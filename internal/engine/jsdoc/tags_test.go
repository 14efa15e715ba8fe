package jsdoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTags(t *testing.T) {
	comment := `/**
 * A greeter.
 * @constructor
 * @extends Base
 * @param {string} name
 * @param {number=} opt_times
 * @param {...*} rest
 */`
	assert.Equal(t, []Tag{
		{Name: "constructor"},
		{Name: "extends", Type: "Base"},
		{Name: "param", Type: "string", Arg: "name"},
		{Name: "param", Type: "number=", Arg: "opt_times"},
		{Name: "param", Type: "...*", Arg: "rest"},
	}, Tags(comment))
}

func TestTagsInline(t *testing.T) {
	assert.Equal(t, []Tag{{Name: "type", Type: "!{a: module$i0}"}}, Tags("/** @type {!{a: module$i0}} */"))
	assert.Nil(t, Tags("/* @type {number} */"))
}

func TestHas(t *testing.T) {
	assert.True(t, Has("/** @constructor */", "constructor"))
	assert.False(t, Has("/** @const */", "constructor"))
}

// Package command turns operator input such as
//
//	01 Top text 05 First middle line 09 .
//
// into an engine.Request.
//
// A tag is two characters, "0" followed by a digit, that starts a word and is
// followed by whitespace. The text of a tag runs until the whitespace in
// front of the next tag or the end of the input; a text of "." clears the
// line. Because any "0d" word starts a new tag, a line cannot contain such a
// word as literal text: "01 Route 05 closed" writes "Route" to line 0x01 and
// "closed" to line 0x05.
//
// Line 0x01 is the Top zone. Lines 0x00 and 0x05 to 0x09 are the Middle
// zone. Other tags are recognised but ignored.
package command

// RomHoard
// Copyright (c) 2026 The RomHoard Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of RomHoard.
//
// RomHoard is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// RomHoard is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with RomHoard.  If not, see <http://www.gnu.org/licenses/>.

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTitleID(t *testing.T) {
	assert.Equal(t, "0100000000010000",
		ExtractTitleID("Super Mario Odyssey [0100000000010000].nsp"))
	assert.Equal(t, "01ABCDEF00010800",
		ExtractTitleID("Game [01abcdef00010800].xci"))
	assert.Empty(t, ExtractTitleID("Game Without ID.nsp"))
	assert.Empty(t, ExtractTitleID("Game [12345].nsp"))
}

func TestContentTypeForTitleID(t *testing.T) {
	tests := []struct {
		titleID string
		want    string
	}{
		{"0100000000010000", ContentTypeBase},
		{"0100000000010800", ContentTypeUpdate},
		{"0100000000010001", ContentTypeDLC},
		{"01000000000107FF", ContentTypeDLC},
		{"0100000000010FFF", ContentTypeDLC},
		{"short", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ContentTypeForTitleID(tt.titleID), tt.titleID)
	}
}

func TestContentInfo(t *testing.T) {
	id, contentType := ContentInfo("Zelda [0100000000020800].nsp")
	assert.Equal(t, "0100000000020800", id)
	assert.Equal(t, ContentTypeUpdate, contentType)

	id, contentType = ContentInfo("Zelda.nsp")
	assert.Empty(t, id)
	assert.Empty(t, contentType)
}

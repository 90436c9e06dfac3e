// This file is part of Lockstep.
//
// Lockstep is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Lockstep is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Lockstep.  If not, see <https://www.gnu.org/licenses/>.

// Package prefs facilitates the storage of preference values. Preference
// values are typed (Bool, Int, Float, String and the Generic type for more
// complex values) and can be grouped into a Disk, which loads and saves the
// values to a simple text file of key/value pairs:
//
//	scheduler.quantum :: 16
//	memory.unmappedloglimit :: 0
//
// Preference values can also be supplied on the command line as a preferences
// string (see PushCommandLineStack()). Values on the command line take
// priority over values in the preferences file.
//
// The zero value of each preference type is ready to use. Hooks can be
// attached that will be called before and after a value is changed.
package prefs

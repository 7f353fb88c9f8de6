// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package test

import (
	"io"
	"io/fs"
)

var (
	_ fs.FS   = (*MockFS)(nil)
	_ fs.File = (*MockFile)(nil)
)

// MockFS is an fs.FS whose Open behavior is supplied by the test.
type MockFS struct {
	OpenFunc func(name string) (fs.File, error)
}

func (m *MockFS) Open(name string) (fs.File, error) {
	return m.OpenFunc(name)
}

// MockFile serves Content and reports the result of CloseFunc on Close.
type MockFile struct {
	Content   []byte
	CloseFunc func() error

	offset int
}

func (mf *MockFile) Read(b []byte) (int, error) {
	if mf.offset >= len(mf.Content) {
		return 0, io.EOF
	}
	n := copy(b, mf.Content[mf.offset:])
	mf.offset += n
	return n, nil
}

func (mf *MockFile) Close() error {
	if mf.CloseFunc == nil {
		return nil
	}
	return mf.CloseFunc()
}

func (mf *MockFile) Stat() (fs.FileInfo, error) {
	return nil, nil
}

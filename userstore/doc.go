// Package userstore provides the GORM-backed implementation of
// courseauth.UserStore over the platform's users table. It supports MySQL
// in production and SQLite for tests.
package userstore

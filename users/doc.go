// Package users stores user records in Redis as JSON documents with a
// case-folded unique email index, and owns password hashing for those
// records. It is the only package that ever sees a password hash.
package users

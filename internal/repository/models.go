// Package repository persists parsed class metadata in a relational index.
package repository

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/classmeta/internal/classfile"
)

// MaxIndexedNameLength bounds the indexed name columns, in characters.
// It keeps a utf8mb4 varchar within MySQL's 3072-byte index key limit.
// Descriptors and source files are unindexed text and carry no limit.
const MaxIndexedNameLength = 768

// ClassRecord represents the classes table. Payload holds the class-file
// bytes, compressed; everything else is derived from them.
type ClassRecord struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name         string    `gorm:"column:name;type:varchar(768);uniqueIndex;not null"`
	SuperName    *string   `gorm:"column:super_name;type:varchar(768);index"`
	Access       int       `gorm:"column:access"`
	MajorVersion int       `gorm:"column:major_version"`
	MinorVersion int       `gorm:"column:minor_version"`
	SourceFile   string    `gorm:"column:source_file;type:text"`
	Payload      []byte    `gorm:"column:payload"`
	Size         int       `gorm:"column:size"`
	SHA256       string    `gorm:"column:sha256;type:char(64);index"`
	RunID        string    `gorm:"column:run_id;type:varchar(36);index"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for ClassRecord.
func (ClassRecord) TableName() string {
	return "classes"
}

// Version returns the stored class-file version.
func (r *ClassRecord) Version() classfile.Version {
	return classfile.Version{Major: uint16(r.MajorVersion), Minor: uint16(r.MinorVersion)}
}

// MemberRecord represents the class_members table.
type MemberRecord struct {
	ID         int64  `gorm:"column:id;primaryKey;autoIncrement"`
	ClassName  string `gorm:"column:class_name;type:varchar(768);index;not null"`
	Kind       string `gorm:"column:kind;type:varchar(8)"`
	Ordinal    int    `gorm:"column:ordinal"`
	Name       string `gorm:"column:name;type:varchar(768);index"`
	Descriptor string `gorm:"column:descriptor;type:text"`
	Access     int    `gorm:"column:access"`
}

// TableName returns the table name for MemberRecord.
func (MemberRecord) TableName() string {
	return "class_members"
}

// IsMethod reports whether the record is a method.
func (m *MemberRecord) IsMethod() bool {
	return m.Kind == classfile.KindMethod.String()
}

// InterfaceRecord represents the class_interfaces table.
type InterfaceRecord struct {
	ID            int64  `gorm:"column:id;primaryKey;autoIncrement"`
	ClassName     string `gorm:"column:class_name;type:varchar(768);index;not null"`
	Ordinal       int    `gorm:"column:ordinal"`
	InterfaceName string `gorm:"column:interface_name;type:varchar(768);index"`
}

// TableName returns the table name for InterfaceRecord.
func (InterfaceRecord) TableName() string {
	return "class_interfaces"
}

// AllModels lists the models managed by Migrate.
func AllModels() []interface{} {
	return []interface{}{&ClassRecord{}, &MemberRecord{}, &InterfaceRecord{}}
}

// Checksum returns the hex SHA-256 of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// checkIndexedNames rejects a class whose names do not fit the indexed
// columns.
func checkIndexedNames(ci *classfile.ClassInfo) error {
	names := append([]string{ci.Name(), ci.SuperName()}, ci.Interfaces()...)
	for _, m := range ci.Fields() {
		names = append(names, m.Name())
	}
	for _, m := range ci.Methods() {
		names = append(names, m.Name())
	}
	for _, n := range names {
		if utf8.RuneCountInString(n) > MaxIndexedNameLength {
			return fmt.Errorf("class %s: name of %d characters exceeds %d",
				ci.Name(), utf8.RuneCountInString(n), MaxIndexedNameLength)
		}
	}
	return nil
}

// newClassRecord maps a parsed class to its row. payload is the encoded
// form of ci.Value().
func newClassRecord(ci *classfile.ClassInfo, payload []byte, runID string) *ClassRecord {
	rec := &ClassRecord{
		Name:         ci.Name(),
		Access:       int(ci.Access()),
		MajorVersion: int(ci.Version().Major),
		MinorVersion: int(ci.Version().Minor),
		SourceFile:   ci.SourceFile(),
		Payload:      payload,
		Size:         ci.Size(),
		SHA256:       Checksum(ci.Value()),
		RunID:        runID,
	}
	if ci.HasSuperName() {
		s := ci.SuperName()
		rec.SuperName = &s
	}
	return rec
}

func newMemberRecords(ci *classfile.ClassInfo) []MemberRecord {
	records := make([]MemberRecord, 0, ci.NumFields()+ci.NumMethods())
	add := func(members []classfile.MemberInfo) {
		for i, m := range members {
			records = append(records, MemberRecord{
				ClassName:  ci.Name(),
				Kind:       m.Kind().String(),
				Ordinal:    i,
				Name:       m.Name(),
				Descriptor: m.Descriptor(),
				Access:     int(m.Access()),
			})
		}
	}
	add(ci.Fields())
	add(ci.Methods())
	return records
}

func newInterfaceRecords(ci *classfile.ClassInfo) []InterfaceRecord {
	ifaces := ci.Interfaces()
	records := make([]InterfaceRecord, 0, len(ifaces))
	for i, name := range ifaces {
		records = append(records, InterfaceRecord{ClassName: ci.Name(), Ordinal: i, InterfaceName: name})
	}
	return records
}

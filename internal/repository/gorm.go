package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/classmeta/internal/classfile"
	"github.com/classmeta/pkg/compression"
	apperrors "github.com/classmeta/pkg/errors"
)

const insertBatchSize = 500

// GormClassRepository implements ClassRepository using GORM.
type GormClassRepository struct {
	db         *gorm.DB
	compressor compression.Compressor
	parser     *classfile.Parser
}

// Option configures a GormClassRepository.
type Option func(*GormClassRepository)

// WithCompressor sets the payload codec. Reads detect the codec from the
// payload, so rows written with another codec stay readable.
func WithCompressor(c compression.Compressor) Option {
	return func(r *GormClassRepository) {
		if c != nil {
			r.compressor = c
		}
	}
}

// WithParser sets the parser GetClass uses to decode payloads.
func WithParser(p *classfile.Parser) Option {
	return func(r *GormClassRepository) {
		if p != nil {
			r.parser = p
		}
	}
}

// NewGormClassRepository creates a repository. Payloads are zstd-compressed
// unless WithCompressor says otherwise.
func NewGormClassRepository(db *gorm.DB, opts ...Option) *GormClassRepository {
	r := &GormClassRepository{
		db:     db,
		parser: classfile.NewParser(nil),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.compressor == nil {
		if c, err := compression.Default(); err == nil {
			r.compressor = c
		} else {
			r.compressor = compression.NoOpCompressor{}
		}
	}
	return r
}

// SaveClass inserts or replaces one class.
func (r *GormClassRepository) SaveClass(ctx context.Context, runID string, class *classfile.ClassInfo) error {
	return r.SaveClasses(ctx, runID, []*classfile.ClassInfo{class})
}

// SaveClasses upserts the classes and rewrites their member and interface
// rows. Either every class is saved or none is.
func (r *GormClassRepository) SaveClasses(ctx context.Context, runID string, classes []*classfile.ClassInfo) error {
	if len(classes) == 0 {
		return nil
	}

	records := make([]*ClassRecord, 0, len(classes))
	var members []MemberRecord
	var ifaces []InterfaceRecord
	names := make([]string, 0, len(classes))
	for _, ci := range classes {
		if ci == nil {
			return apperrors.New(apperrors.CodeInvalidInput, "nil class")
		}
		if err := checkIndexedNames(ci); err != nil {
			return apperrors.Wrap(apperrors.CodeInvalidInput, "save classes", err)
		}
		payload, err := r.compressor.Compress(ci.Value())
		if err != nil {
			return apperrors.Wrap(apperrors.CodeDatabaseError, "compress "+ci.Name(), err)
		}
		records = append(records, newClassRecord(ci, payload, runID))
		members = append(members, newMemberRecords(ci)...)
		ifaces = append(ifaces, newInterfaceRecords(ci)...)
		names = append(names, ci.Name())
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range records {
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"super_name", "access", "major_version", "minor_version", "source_file",
					"payload", "size", "sha256", "run_id", "updated_at",
				}),
			}).Create(rec).Error
			if err != nil {
				return fmt.Errorf("upsert class %s: %w", rec.Name, err)
			}
		}

		if err := tx.Where("class_name IN ?", names).Delete(&MemberRecord{}).Error; err != nil {
			return fmt.Errorf("clear members: %w", err)
		}
		if err := tx.Where("class_name IN ?", names).Delete(&InterfaceRecord{}).Error; err != nil {
			return fmt.Errorf("clear interfaces: %w", err)
		}
		if len(members) > 0 {
			if err := tx.CreateInBatches(members, insertBatchSize).Error; err != nil {
				return fmt.Errorf("insert members: %w", err)
			}
		}
		if len(ifaces) > 0 {
			if err := tx.CreateInBatches(ifaces, insertBatchSize).Error; err != nil {
				return fmt.Errorf("insert interfaces: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "save classes", err)
	}
	return nil
}

// GetRecord returns the stored row for name.
func (r *GormClassRepository) GetRecord(ctx context.Context, name string) (*ClassRecord, error) {
	var rec ClassRecord
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "class not found: "+name)
		}
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "get class", err)
	}
	return &rec, nil
}

// GetClass decodes and re-parses the stored payload. A payload that does not
// match its checksum is reported as a database error.
func (r *GormClassRepository) GetClass(ctx context.Context, name string) (*classfile.ClassInfo, error) {
	rec, err := r.GetRecord(ctx, name)
	if err != nil {
		return nil, err
	}
	data, err := compression.AutoDecompress(rec.Payload)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "decompress "+name, err)
	}
	if sum := Checksum(data); sum != rec.SHA256 {
		return nil, apperrors.New(apperrors.CodeDatabaseError, fmt.Sprintf("checksum mismatch for %s: stored %s, computed %s", name, rec.SHA256, sum))
	}
	return r.parser.Parse(data)
}

// FindSubclasses returns direct subclasses of super, sorted by name.
func (r *GormClassRepository) FindSubclasses(ctx context.Context, super string) ([]string, error) {
	names := []string{}
	err := r.db.WithContext(ctx).
		Model(&ClassRecord{}).
		Where("super_name = ?", super).
		Order("name").
		Pluck("name", &names).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "find subclasses", err)
	}
	return names, nil
}

// FindImplementors returns classes that list iface directly, sorted by name.
func (r *GormClassRepository) FindImplementors(ctx context.Context, iface string) ([]string, error) {
	names := []string{}
	err := r.db.WithContext(ctx).
		Model(&InterfaceRecord{}).
		Distinct("class_name").
		Where("interface_name = ?", iface).
		Order("class_name").
		Pluck("class_name", &names).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "find implementors", err)
	}
	return names, nil
}

// FindMembers matches the descriptor prefix in Go; LIKE would treat '_' in
// class names as a wildcard.
func (r *GormClassRepository) FindMembers(ctx context.Context, name, descriptorPrefix string) ([]MemberRecord, error) {
	var rows []MemberRecord
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		Order("class_name").
		Order("kind").
		Order("ordinal").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "find members", err)
	}

	out := make([]MemberRecord, 0, len(rows))
	for _, m := range rows {
		if strings.HasPrefix(m.Descriptor, descriptorPrefix) {
			out = append(out, m)
		}
	}
	return out, nil
}

// ListByRun returns the classes last written by runID.
func (r *GormClassRepository) ListByRun(ctx context.Context, runID string) ([]string, error) {
	names := []string{}
	err := r.db.WithContext(ctx).
		Model(&ClassRecord{}).
		Where("run_id = ?", runID).
		Pluck("name", &names).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "list run", err)
	}
	sort.Strings(names)
	return names, nil
}

// Count returns the number of stored classes.
func (r *GormClassRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&ClassRecord{}).Count(&n).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.CodeDatabaseError, "count classes", err)
	}
	return n, nil
}

// Delete removes a class with its member and interface rows.
func (r *GormClassRepository) Delete(ctx context.Context, name string) error {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("class_name = ?", name).Delete(&MemberRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("class_name = ?", name).Delete(&InterfaceRecord{}).Error; err != nil {
			return err
		}
		res := tx.Where("name = ?", name).Delete(&ClassRecord{})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "delete class", err)
	}
	if affected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "class not found: "+name)
	}
	return nil
}

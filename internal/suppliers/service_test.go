package suppliers

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memorySupplierRepo struct {
	seq       int64
	suppliers map[int64]Supplier
	inUse     map[int64]bool
}

func newMemorySupplierRepo() *memorySupplierRepo {
	return &memorySupplierRepo{suppliers: map[int64]Supplier{}, inUse: map[int64]bool{}}
}

func (m *memorySupplierRepo) List(_ context.Context, search string) ([]Supplier, error) {
	var out []Supplier
	for _, s := range m.suppliers {
		if search != "" && !strings.Contains(strings.ToLower(s.Name), strings.ToLower(search)) &&
			!strings.Contains(s.TaxID, search) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memorySupplierRepo) Get(_ context.Context, id int64) (Supplier, error) {
	s, ok := m.suppliers[id]
	if !ok {
		return Supplier{}, ErrNotFound
	}
	return s, nil
}

func (m *memorySupplierRepo) Create(_ context.Context, supplier Supplier) (int64, error) {
	for _, existing := range m.suppliers {
		if existing.Name == supplier.Name || existing.TaxID == supplier.TaxID {
			return 0, ErrDuplicate
		}
	}
	m.seq++
	supplier.ID = m.seq
	supplier.CreatedAt = time.Now()
	m.suppliers[supplier.ID] = supplier
	return supplier.ID, nil
}

func (m *memorySupplierRepo) Update(_ context.Context, supplier Supplier) error {
	if _, ok := m.suppliers[supplier.ID]; !ok {
		return ErrNotFound
	}
	for id, existing := range m.suppliers {
		if id != supplier.ID && (existing.Name == supplier.Name || existing.TaxID == supplier.TaxID) {
			return ErrDuplicate
		}
	}
	m.suppliers[supplier.ID] = supplier
	return nil
}

func (m *memorySupplierRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.suppliers[id]; !ok {
		return ErrNotFound
	}
	if m.inUse[id] {
		return ErrInUse
	}
	delete(m.suppliers, id)
	return nil
}

func TestCreateRequiresNameAndTaxID(t *testing.T) {
	svc := NewService(newMemorySupplierRepo())

	_, err := svc.Create(context.Background(), Supplier{TaxID: "12.345.678/0001-00"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(context.Background(), Supplier{Name: "Auto Pecas Lima"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateTrimsAndPersists(t *testing.T) {
	repo := newMemorySupplierRepo()
	svc := NewService(repo)

	supplier, err := svc.Create(context.Background(), Supplier{
		Name:  "  Auto Pecas Lima  ",
		TaxID: " 12.345.678/0001-00 ",
	})
	require.NoError(t, err)
	require.Equal(t, "Auto Pecas Lima", supplier.Name)
	require.Equal(t, "12.345.678/0001-00", supplier.TaxID)
	require.NotZero(t, supplier.ID)
}

func TestCreateDuplicateTaxID(t *testing.T) {
	svc := NewService(newMemorySupplierRepo())

	_, err := svc.Create(context.Background(), Supplier{Name: "Auto Pecas Lima", TaxID: "12.345.678/0001-00"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), Supplier{Name: "Outro Fornecedor", TaxID: "12.345.678/0001-00"})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestListOrderedByName(t *testing.T) {
	svc := NewService(newMemorySupplierRepo())

	for _, name := range []string{"Zeta Diesel", "Auto Pecas Lima", "Mecanica Central"} {
		_, err := svc.Create(context.Background(), Supplier{Name: name, TaxID: name})
		require.NoError(t, err)
	}

	listed, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, listed, 3)
	require.Equal(t, "Auto Pecas Lima", listed[0].Name)
	require.Equal(t, "Mecanica Central", listed[1].Name)
	require.Equal(t, "Zeta Diesel", listed[2].Name)
}

func TestDeleteReferencedSupplier(t *testing.T) {
	repo := newMemorySupplierRepo()
	svc := NewService(repo)

	supplier, err := svc.Create(context.Background(), Supplier{Name: "Auto Pecas Lima", TaxID: "1"})
	require.NoError(t, err)
	repo.inUse[supplier.ID] = true

	require.ErrorIs(t, svc.Delete(context.Background(), supplier.ID), ErrInUse)

	repo.inUse[supplier.ID] = false
	require.NoError(t, svc.Delete(context.Background(), supplier.ID))
	_, err = svc.Get(context.Background(), supplier.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

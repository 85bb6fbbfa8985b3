// Package linalg 提供定价引擎所需的稠密矩阵运算：最小二乘回归与相关矩阵分解。
package linalg

import (
	"math"

	"github.com/wyfcoding/quant/xerrors"
)

// Matrix 定义基础矩阵结构，按行优先存储.
type Matrix struct {
	Data []float64
	Rows int
	Cols int
}

// NewMatrix 创建一个 r x c 的零矩阵.
func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{
		Rows: rows,
		Cols: cols,
		Data: make([]float64, rows*cols),
	}
}

// NewMatrixFromData 从二维切片创建矩阵.
func NewMatrixFromData(data [][]float64) (*Matrix, error) {
	rows := len(data)
	if rows == 0 {
		return nil, xerrors.Derive(xerrors.ErrEmptyData, "matrix must have at least one row")
	}

	cols := len(data[0])
	mat := NewMatrix(rows, cols)
	for i := range rows {
		if len(data[i]) != cols {
			return nil, xerrors.Derive(xerrors.ErrDimMismatch, "row %d has %d columns, want %d", i, len(data[i]), cols)
		}
		copy(mat.Data[i*cols:(i+1)*cols], data[i])
	}

	return mat, nil
}

// Get 获取元素 (i, j).
func (m *Matrix) Get(row, col int) float64 {
	return m.Data[row*m.Cols+col]
}

// Set 设置元素 (i, j).
func (m *Matrix) Set(row, col int, val float64) {
	m.Data[row*m.Cols+col] = val
}

// Transpose 矩阵转置.
func (m *Matrix) Transpose() *Matrix {
	res := NewMatrix(m.Cols, m.Rows)
	for i := range m.Rows {
		for j := range m.Cols {
			res.Set(j, i, m.Get(i, j))
		}
	}
	return res
}

// MultiplyVector 矩阵向量乘法: y = A * x.
func (m *Matrix) MultiplyVector(vec []float64) ([]float64, error) {
	if len(vec) != m.Cols {
		return nil, xerrors.Derive(xerrors.ErrDimMismatch, "vector length %d, matrix has %d columns", len(vec), m.Cols)
	}

	res := make([]float64, m.Rows)
	for i := range m.Rows {
		var sum float64
		rowOffset := i * m.Cols
		for j := range m.Cols {
			sum += m.Data[rowOffset+j] * vec[j]
		}
		res[i] = sum
	}
	return res, nil
}

// Multiply 矩阵乘法: C = A * B.
func (m *Matrix) Multiply(other *Matrix) (*Matrix, error) {
	if m.Cols != other.Rows {
		return nil, xerrors.Derive(xerrors.ErrDimMismatch, "%dx%d times %dx%d", m.Rows, m.Cols, other.Rows, other.Cols)
	}

	res := NewMatrix(m.Rows, other.Cols)
	for i := range m.Rows {
		rowOffsetA := i * m.Cols
		rowOffsetC := i * res.Cols
		for k := range m.Cols {
			valA := m.Data[rowOffsetA+k]
			rowOffsetB := k * other.Cols
			for j := range other.Cols {
				res.Data[rowOffsetC+j] += valA * other.Data[rowOffsetB+j]
			}
		}
	}
	return res, nil
}

// Cholesky 分解: A = L * L^T，非正定时返回 ErrNotPositiveDefinite.
func (m *Matrix) Cholesky() (*Matrix, error) {
	if m.Rows != m.Cols {
		return nil, xerrors.Derive(xerrors.ErrNotSquare, "matrix is %dx%d", m.Rows, m.Cols)
	}

	n := m.Rows
	res := NewMatrix(n, n)
	for i := range n {
		for j := range i + 1 {
			var sum float64
			for k := range j {
				sum += res.Get(i, k) * res.Get(j, k)
			}

			if i == j {
				val := m.Get(i, i) - sum
				if val <= 0 || math.IsNaN(val) {
					return nil, xerrors.Numerical(xerrors.ErrNotPositiveDefinite, "pivot %d is %g", i, val)
				}
				res.Set(i, j, math.Sqrt(val))
			} else {
				res.Set(i, j, (m.Get(i, j)-sum)/res.Get(j, j))
			}
		}
	}
	return res, nil
}

// ForwardSubstitute 解下三角方程组 Ly = b.
func (m *Matrix) ForwardSubstitute(b []float64) ([]float64, error) {
	if m.Rows != m.Cols || len(b) != m.Rows {
		return nil, xerrors.Derive(xerrors.ErrDimMismatch, "forward substitution on %dx%d with rhs %d", m.Rows, m.Cols, len(b))
	}

	res := make([]float64, m.Rows)
	for i := range m.Rows {
		var sum float64
		for j := range i {
			sum += m.Get(i, j) * res[j]
		}
		res[i] = (b[i] - sum) / m.Get(i, i)
	}
	return res, nil
}

// BackwardSubstitute 解上三角方程组 L^T x = y，m 为下三角因子 L.
func (m *Matrix) BackwardSubstitute(b []float64) ([]float64, error) {
	if m.Rows != m.Cols || len(b) != m.Rows {
		return nil, xerrors.Derive(xerrors.ErrDimMismatch, "backward substitution on %dx%d with rhs %d", m.Rows, m.Cols, len(b))
	}

	res := make([]float64, m.Rows)
	for i := m.Rows - 1; i >= 0; i-- {
		var sum float64
		for j := i + 1; j < m.Cols; j++ {
			sum += m.Get(j, i) * res[j]
		}
		res[i] = (b[i] - sum) / m.Get(i, i)
	}
	return res, nil
}

// SolveCholesky 使用 Cholesky 分解求解 Mx = b.
func (m *Matrix) SolveCholesky(b []float64) ([]float64, error) {
	L, err := m.Cholesky()
	if err != nil {
		return nil, err
	}
	y, err := L.ForwardSubstitute(b)
	if err != nil {
		return nil, err
	}
	return L.BackwardSubstitute(y)
}

// LeastSquares 通过正规方程 (A^T A) β = A^T y 求最小二乘解.
// 设计矩阵列数不超过个位数，正规方程足够稳定；奇异时返回 ErrNotPositiveDefinite.
func LeastSquares(a *Matrix, y []float64) ([]float64, error) {
	if a.Rows != len(y) {
		return nil, xerrors.Derive(xerrors.ErrDimMismatch, "design matrix has %d rows, response has %d", a.Rows, len(y))
	}
	if a.Rows < a.Cols {
		return nil, xerrors.Numerical(xerrors.ErrInsufficientPaths, "%d observations for %d coefficients", a.Rows, a.Cols)
	}

	at := a.Transpose()
	ata, err := at.Multiply(a)
	if err != nil {
		return nil, err
	}
	aty, err := at.MultiplyVector(y)
	if err != nil {
		return nil, err
	}
	return ata.SolveCholesky(aty)
}

package xerrors

// 以下为错误目录，仅作为 errors.Is 的比较目标与 Derive 的模板使用。
var (
	// ErrEmptyData 输入数据为空。
	ErrEmptyData = New(ErrInvalidArg, 400001, "empty data", "input data must not be empty", nil)
	// ErrInvalidInput 输入参数不合法。
	ErrInvalidInput = New(ErrInvalidArg, 400002, "invalid input", "check your input parameters", nil)
	// ErrInvalidOptionType 无效的期权类型。
	ErrInvalidOptionType = New(ErrInvalidArg, 400004, "invalid option type", "supported types: call, put", nil)
	// ErrDimMismatch 维度不匹配。
	ErrDimMismatch = New(ErrInvalidArg, 400007, "dimension mismatch", "matrix or vector dimensions do not match", nil)
	// ErrNotSquare 不是方阵。
	ErrNotSquare = New(ErrInvalidArg, 400008, "matrix must be square", "input matrix is not square", nil)
	// ErrLengthMismatch 批量输入数组长度不一致。
	ErrLengthMismatch = New(ErrInvalidArg, 400020, "length mismatch", "all batch inputs must have equal length", nil)
	// ErrUnsortedMaturities 期限未按升序排列。
	ErrUnsortedMaturities = New(ErrInvalidArg, 400021, "unsorted maturities", "maturities must be strictly increasing", nil)
	// ErrDuplicateMaturity 期限重复。
	ErrDuplicateMaturity = New(ErrInvalidArg, 400022, "duplicate maturity", "each maturity may appear only once", nil)
	// ErrInvalidInterpolation 未知的插值方法。
	ErrInvalidInterpolation = New(ErrInvalidArg, 400023, "invalid interpolation", "supported: linear, log_linear, cubic_spline, monotone_cubic", nil)

	// ErrUnstableLattice 二叉树风险中性概率越界。
	ErrUnstableLattice = New(ErrNumerical, 422001, "unstable lattice", "risk-neutral probability outside [0, 1]", nil)
	// ErrInsufficientPaths 路径数不足以完成回归。
	ErrInsufficientPaths = New(ErrNumerical, 422002, "insufficient paths", "not enough paths for regression", nil)
	// ErrNotPositiveDefinite 不是正定矩阵。
	ErrNotPositiveDefinite = New(ErrNumerical, 422003, "matrix is not positive definite", "input matrix must be positive definite", nil)
	// ErrNonPositiveDiscount 自举得到非正贴现因子。
	ErrNonPositiveDiscount = New(ErrNumerical, 422004, "non-positive discount factor", "bootstrapped discount factor must be positive", nil)
)

// Numerical 以目录中的数值错误为模板创建新实例。
func Numerical(base *Error, format string, args ...any) *Error {
	return Derive(base, format, args...)
}

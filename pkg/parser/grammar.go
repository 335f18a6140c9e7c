package parser

import "github.com/kartiknair/beginc/pkg/token"

// Rule numbers recorded in the left-most derivation.
const (
	ruleProgram = iota + 1
	ruleCode
	ruleCodeEpsilon
	ruleInstSepComma
	ruleInstSepEpsilon
	ruleInstructionAssign
	ruleInstructionIf
	ruleInstructionWhile
	ruleInstructionPrint
	ruleInstructionRead
	ruleAssign
	ruleExprArith
	ruleExprArithPlus
	ruleExprArithMinus
	ruleExprArithEpsilon
	ruleMulDiv
	ruleMulDivTimes
	ruleMulDivDivide
	ruleMulDivEpsilon
	ruleAtomMinus
	ruleAtomVarName
	ruleAtomNumber
	ruleAtomParens
	ruleIf
	ruleIfSeqEnd
	ruleIfSeqElse
	ruleCond
	ruleCompEqual
	ruleCompLesser
	ruleCompGreater
	ruleWhile
	rulePrint
	ruleRead
)

// Rules maps a rule number to its production, index 0 is unused.
var Rules = [...]string{
	"",
	"<Program> -> BEGIN VARNAME <Code> END",
	"<Code> -> <Instruction> <InstSep> <Code>",
	"<Code> -> ε",
	"<InstSep> -> ,",
	"<InstSep> -> ε",
	"<Instruction> -> <Assign>",
	"<Instruction> -> <If>",
	"<Instruction> -> <While>",
	"<Instruction> -> <Print>",
	"<Instruction> -> <Read>",
	"<Assign> -> VARNAME := <ExprArith>",
	"<ExprArith> -> <MulDiv> <ExprArith'>",
	"<ExprArith'> -> + <MulDiv> <ExprArith'>",
	"<ExprArith'> -> - <MulDiv> <ExprArith'>",
	"<ExprArith'> -> ε",
	"<MulDiv> -> <Atom> <MulDiv'>",
	"<MulDiv'> -> * <Atom> <MulDiv'>",
	"<MulDiv'> -> / <Atom> <MulDiv'>",
	"<MulDiv'> -> ε",
	"<Atom> -> - <Atom>",
	"<Atom> -> VARNAME",
	"<Atom> -> NUMBER",
	"<Atom> -> ( <ExprArith> )",
	"<If> -> if ( <Cond> ) then <Code> <IfSeq>",
	"<IfSeq> -> end",
	"<IfSeq> -> else <Code> end",
	"<Cond> -> <ExprArith> <Comp> <ExprArith>",
	"<Comp> -> =",
	"<Comp> -> <",
	"<Comp> -> >",
	"<While> -> while ( <Cond> ) do <Code> end",
	"<Print> -> print ( VARNAME )",
	"<Read> -> read ( VARNAME )",
}

var (
	firstInstruction = []token.TokenType{
		token.VARNAME, token.IF, token.WHILE, token.PRINT, token.READ,
	}
	followCode = []token.TokenType{token.ELSE, token.END}

	// ExprArith is followed by a separator, a closing parenthesis, a
	// comparison operator or the end of the enclosing block.
	followExprArith = []token.TokenType{
		token.COMMA, token.RIGHT_PAREN,
		token.EQUAL, token.LESSER, token.GREATER,
		token.ELSE, token.END,
	}
	followMulDiv = append([]token.TokenType{token.PLUS, token.MINUS}, followExprArith...)

	firstAtom = []token.TokenType{
		token.MINUS, token.VARNAME, token.NUMBER, token.LEFT_PAREN,
	}
	firstComp = []token.TokenType{token.EQUAL, token.LESSER, token.GREATER}
)

func contains(set []token.TokenType, typ token.TokenType) bool {
	for _, t := range set {
		if t == typ {
			return true
		}
	}
	return false
}

func union(sets ...[]token.TokenType) []token.TokenType {
	var result []token.TokenType
	for _, set := range sets {
		for _, t := range set {
			if !contains(result, t) {
				result = append(result, t)
			}
		}
	}
	return result
}
